// Package shellparse tokenizes the shell-like command lines found in the Exec key of desktop
// entries.
//
// The grammar is deliberately narrow: whitespace separated tokens, single and double quotes,
// backslash escapes and leading NAME=value assignments. Pipes, redirects, globs and
// substitutions are not recognized and end up as literal characters.
package shellparse

import (
	"strconv"
	"strings"
)

const steamRunGamePrefix = "steam://rungameid/"

// Variable is an environment variable assignment such as FOO=bar.
type Variable struct {
	Name  string
	Value string
}

func (v Variable) String() string {
	return v.Name + "=" + v.Value
}

// Command is the result of tokenizing a command line.
type Command struct {
	// Command is the program to execute. It is never empty for a parsed command.
	Command string

	// Args are the arguments following Command, in order.
	Args []string

	// Variables are the NAME=value assignments that preceded Command, in order.
	// Duplicate names are kept.
	Variables []Variable
}

// ParseVariable splits token on its first '=' into a variable assignment.
// The name is not validated, "=x" yields a variable with an empty name.
func ParseVariable(token string) (Variable, bool) {
	name, value, found := strings.Cut(token, "=")
	if !found {
		return Variable{}, false
	}

	return Variable{Name: name, Value: value}, true
}

// IsEnv returns true if the command uses env(1) to start the actual program.
func (c *Command) IsEnv() bool {
	return c.Command == "env"
}

// FlattenEnv rewrites `env A=1 B=2 binary args...` into `binary args...` with A and B appended
// to the variables.
// The first argument that neither starts with '-' nor contains '=' is taken as the binary. If
// there is none, or the command is not env, c is left untouched.
//
// Arguments between env and the binary that are not assignments, such as `-i`, are removed
// without being kept anywhere. They are returned so the caller can decide what to do with them.
func (c *Command) FlattenEnv() []string {
	if !c.IsEnv() {
		return nil
	}

	binaryIndex := -1
	for i, arg := range c.Args {
		if !strings.HasPrefix(arg, "-") && !strings.Contains(arg, "=") {
			binaryIndex = i
			break
		}
	}

	if binaryIndex == -1 {
		return nil
	}

	var dropped []string
	for _, arg := range c.Args[:binaryIndex] {
		variable, ok := ParseVariable(arg)
		if !ok {
			dropped = append(dropped, arg)
			continue
		}
		c.Variables = append(c.Variables, variable)
	}

	c.Command = c.Args[binaryIndex]
	c.Args = append([]string(nil), c.Args[binaryIndex+1:]...)

	return dropped
}

// String joins the variables, command and arguments with single spaces.
// Nothing is quoted, the result is meant for display and is not guaranteed to parse back to
// the same command.
func (c Command) String() string {
	var builder strings.Builder

	for _, variable := range c.Variables {
		builder.WriteString(variable.String())
		builder.WriteByte(' ')
	}

	builder.WriteString(c.Command)

	for _, arg := range c.Args {
		builder.WriteByte(' ')
		builder.WriteString(arg)
	}

	return builder.String()
}

// Tokens returns the variables as NAME=value, followed by the command and its arguments.
func (c Command) Tokens() []string {
	result := make([]string, 0, len(c.Variables)+1+len(c.Args))
	result = append(result, c.Environ()...)
	result = append(result, c.Command)
	result = append(result, c.Args...)

	return result
}

// Argv returns the command followed by its arguments, ready for [os/exec.Command].
func (c Command) Argv() []string {
	result := make([]string, 0, 1+len(c.Args))
	result = append(result, c.Command)

	return append(result, c.Args...)
}

// Environ returns the variables in the NAME=value form used by [os/exec.Cmd.Env].
func (c Command) Environ() []string {
	result := make([]string, 0, len(c.Variables))
	for _, variable := range c.Variables {
		result = append(result, variable.String())
	}

	return result
}

// SteamAppID returns the app ID of the first steam://rungameid/ argument.
// A repeated prefix is stripped and the ID may carry a leading plus sign.
// False is returned when there is no such argument or when the ID is not numeric.
func (c Command) SteamAppID() (uint64, bool) {
	for _, arg := range c.Args {
		arg = strings.TrimSpace(arg)
		if !strings.HasPrefix(arg, steamRunGamePrefix) {
			continue
		}

		rest := arg
		for strings.HasPrefix(rest, steamRunGamePrefix) {
			rest = rest[len(steamRunGamePrefix):]
		}

		appID, err := strconv.ParseUint(strings.TrimPrefix(rest, "+"), 10, 64)
		if err != nil {
			return 0, false
		}

		return appID, true
	}

	return 0, false
}

// IsSteamApp returns true if the command launches a game through the steam client.
func (c Command) IsSteamApp() bool {
	if c.Command != "steam" {
		return false
	}

	_, ok := c.SteamAppID()
	return ok
}
