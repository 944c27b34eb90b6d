package shellparse

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/shlex"
)

func cmd(command string, args ...string) *Command {
	return &Command{Command: command, Args: args}
}

func cmdVars(command string, args []string, vars ...Variable) *Command {
	return &Command{Command: command, Args: args, Variables: vars}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Command
	}{
		{
			name:  "single",
			input: "binary_name",
			want:  cmd("binary_name"),
		},
		{
			name:  "one arg",
			input: "cmd one",
			want:  cmd("cmd", "one"),
		},
		{
			name:  "two args",
			input: "cmd one two",
			want:  cmd("cmd", "one", "two"),
		},
		{
			name:  "simple",
			input: "./bin how are you doing?",
			want:  cmd("./bin", "how", "are", "you", "doing?"),
		},
		{
			name:  "multiple whitespace",
			input: "./bin  how   are    you     doing?",
			want:  cmd("./bin", "how", "are", "you", "doing?"),
		},
		{
			name:  "leading and trailing whitespace",
			input: "    ./bin  how   are    you     doing?       ",
			want:  cmd("./bin", "how", "are", "you", "doing?"),
		},
		{
			name:  "tabs and newlines separate tokens",
			input: "\tcmd\none\r\ntwo\t",
			want:  cmd("cmd", "one", "two"),
		},
		{
			name:  "double quoted strings",
			input: `cmd "string" "string with space in between"`,
			want:  cmd("cmd", "string", "string with space in between"),
		},
		{
			name:  "escaped quotes in string",
			input: `cmd "string with \"escaped\" quotes"`,
			want:  cmd("cmd", `string with "escaped" quotes`),
		},
		{
			name:  "other delimiter is literal",
			input: `cmd "'single' quotes in doubly quoted string" '"double" quotes in singly quoted string'`,
			want: cmd(
				"cmd",
				"'single' quotes in doubly quoted string",
				`"double" quotes in singly quoted string`,
			),
		},
		{
			name:  "backslash escapes inside single quotes",
			input: `cmd 'it\'s'`,
			want:  cmd("cmd", "it's"),
		},
		{
			name:  "quotes join adjacent text",
			input: `cmd pre"mid dle"post`,
			want:  cmd("cmd", "premid dlepost"),
		},
		{
			name:  "escaped whitespace",
			input: `cmd escaped\ whitespace`,
			want:  cmd("cmd", "escaped whitespace"),
		},
		{
			name:  "escaped whitespace as its own token",
			input: `cmd \  b`,
			want:  cmd("cmd", " ", "b"),
		},
		{
			name:  "empty quotes produce no token",
			input: `cmd "" '' a`,
			want:  cmd("cmd", "a"),
		},
		{
			name:  "unterminated quote runs to the end",
			input: `cmd "one two`,
			want:  cmd("cmd", "one two"),
		},
		{
			name:  "trailing backslash is dropped",
			input: `cmd arg\`,
			want:  cmd("cmd", "arg"),
		},
		{
			name:  "lone trailing backslash",
			input: `cmd \`,
			want:  cmd("cmd"),
		},
		{
			name:  "non ascii",
			input: "cmd héllo 世界",
			want:  cmd("cmd", "héllo", "世界"),
		},
		{
			name:  "variables",
			input: `VAR1=value1 VAR2="value 2" VAR3=test"val" bin`,
			want: cmdVars(
				"bin",
				nil,
				Variable{"VAR1", "value1"},
				Variable{"VAR2", "value 2"},
				Variable{"VAR3", "testval"},
			),
		},
		{
			name:  "variable split on first equals sign",
			input: `A=b=c bin`,
			want:  cmdVars("bin", nil, Variable{"A", "b=c"}),
		},
		{
			name:  "variable with empty name and value",
			input: `= A= bin`,
			want:  cmdVars("bin", nil, Variable{"", ""}, Variable{"A", ""}),
		},
		{
			name:  "duplicate variables are kept",
			input: `A=1 A=2 bin`,
			want:  cmdVars("bin", nil, Variable{"A", "1"}, Variable{"A", "2"}),
		},
		{
			name:  "assignments after the command are arguments",
			input: `A=1 bin B=2 --opt=3`,
			want:  cmdVars("bin", []string{"B=2", "--opt=3"}, Variable{"A", "1"}),
		},
		{
			name:  "quoted assignment is still a variable",
			input: `"TEST=testval" bin`,
			want:  cmdVars("bin", nil, Variable{"TEST", "testval"}),
		},
		{
			name:  "flatpak",
			input: `/usr/bin/flatpak run --branch=stable --arch=x86_64 --command=amberol --file-forwarding io.bassi.Amberol @@u %U @@`,
			want: cmd(
				"/usr/bin/flatpak",
				"run",
				"--branch=stable",
				"--arch=x86_64",
				"--command=amberol",
				"--file-forwarding",
				"io.bassi.Amberol",
				"@@u",
				"%U",
				"@@",
			),
		},
		{
			name:  "steam",
			input: `steam steam://rungameid/221380`,
			want:  cmd("steam", "steam://rungameid/221380"),
		},
		{
			name:  "env with wine",
			input: `env WINEPREFIX="/home/user/Games/league-of-legends" wine C:\\ProgramData\\Microsoft\\Windows\\Start\ Menu\\Programs\\Riot\ Games\\League\ of\ Legends.lnk`,
			want: cmd(
				"env",
				"WINEPREFIX=/home/user/Games/league-of-legends",
				"wine",
				`C:\ProgramData\Microsoft\Windows\Start Menu\Programs\Riot Games\League of Legends.lnk`,
			),
		},
		{
			name: "printf with complex quoting",
			input: "printf \"|||%%s|||\\\\n\" \"quoting terminal\" \"with 'complex' arguments,\" " +
				"\"quotes \\\",\" \"\" \t\"empty args,\" \"new\nlines,\" \"and \\\"back\\\\slashes\\\"\"",
			want: cmd(
				"printf",
				`|||%%s|||\n`,
				"quoting terminal",
				"with 'complex' arguments,",
				`quotes ",`,
				"empty args,",
				"new\nlines,",
				`and "back\slashes"`,
			),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := Parse(test.input)
			if !ok {
				t.Fatalf("Parse(%q) found no command", test.input)
			}

			if diff := cmp.Diff(test.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", test.input, diff)
			}
		})
	}
}

func TestParse_NoCommand(t *testing.T) {
	tests := []string{
		"",
		" ",
		"\t\n  \r\n",
		`""`,
		`'' ""`,
		`\`,
		"A=1",
		"A=1 B=2   ",
	}

	for _, input := range tests {
		got, ok := Parse(input)
		if ok || got != nil {
			t.Errorf("Parse(%q) = %v, %v; want nil, false", input, got, ok)
		}
	}
}

func TestParse_CommandNeverEmpty(t *testing.T) {
	inputs := []string{
		`"" cmd`,
		`A= cmd`,
		`\ `,
		`'"'`,
		`  x`,
	}

	for _, input := range inputs {
		got, ok := Parse(input)
		if !ok {
			t.Errorf("Parse(%q) found no command", input)
			continue
		}

		if got.Command == "" {
			t.Errorf("Parse(%q).Command is empty", input)
		}
	}
}

// Without quoting or escaping, the tokens match a POSIX splitter and re-joining them parses to
// the same command.
func TestParse_TokensRoundTrip(t *testing.T) {
	inputs := []string{
		"binary_name",
		"cmd one two",
		"  cmd   one\ttwo  ",
		"A=1 B=2 bin --flag=x arg",
		"/usr/bin/flatpak run --branch=stable io.bassi.Amberol %U",
		"env WINEPREFIX=/x wine target.lnk",
	}

	for _, input := range inputs {
		parsed, ok := Parse(input)
		if !ok {
			t.Fatalf("Parse(%q) found no command", input)
		}

		joined := strings.Join(parsed.Tokens(), " ")
		want, err := shlex.Split(input)
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(want, parsed.Tokens()); diff != "" {
			t.Errorf("Tokens() of %q differ from shlex (-want +got):\n%s", input, diff)
		}

		reparsed, ok := Parse(joined)
		if !ok {
			t.Fatalf("Parse(%q) found no command", joined)
		}

		if diff := cmp.Diff(parsed, reparsed, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("reparse of %q mismatch (-want +got):\n%s", joined, diff)
		}
	}
}
