package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aleb2000/DesktopFileEditor/internal/ui"
	"github.com/aleb2000/DesktopFileEditor/shellparse"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatText   = "text"
	formatTokens = "tokens"
	formatYAML   = "yaml"
)

type parseOptions struct {
	flatten bool
	format  string
}

// commandView is the YAML form of a tokenized command.
type commandView struct {
	Variables []string `yaml:"variables,omitempty"`
	Command   string   `yaml:"command"`
	Args      []string `yaml:"args,omitempty"`
	Dropped   []string `yaml:"dropped,omitempty"`
}

// NewParseCommand creates the 'parse' subcommand.
func NewParseCommand(app *App) *cobra.Command {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <exec>...",
		Short: "Tokenize an Exec command line.",
		Long: `Splits an Exec command line into environment variables, the command and its
arguments. Multiple arguments are joined with a space before tokenizing, so quote the
whole line to keep its quoting intact:

  deskexec parse 'env WINEPREFIX="/home/me/.wine" wine game.exe'`,
		Args: cobra.MinimumNArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			if !cmd.Flags().Changed("flatten") {
				opts.flatten = app.Config.FlattenEnv
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParseCmd(cmd.OutOrStdout(), strings.Join(args, " "), opts)
		},
	}

	// Options of the tokenized command line, such as env -i, are not flags of parse.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&opts.flatten, "flatten", false, "resolve `env VAR=value binary` to binary")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text, tokens or yaml")

	return cmd
}

func runParseCmd(out io.Writer, line string, opts *parseOptions) error {
	command, ok := shellparse.Parse(line)
	if !ok {
		return fmt.Errorf("no command found in %q", line)
	}

	var dropped []string
	if opts.flatten {
		dropped = command.FlattenEnv()
	}

	switch opts.format {
	case formatText:
		writeCommandText(out, command, dropped)
	case formatTokens:
		for _, token := range command.Tokens() {
			fmt.Fprintln(out, token)
		}
	case formatYAML:
		view := commandView{
			Variables: command.Environ(),
			Command:   command.Command,
			Args:      command.Args,
			Dropped:   dropped,
		}

		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(view); err != nil {
			return fmt.Errorf("could not encode command: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown format %q, expected %s, %s or %s", opts.format, formatText, formatTokens, formatYAML)
	}

	return nil
}

func writeCommandText(out io.Writer, command *shellparse.Command, dropped []string) {
	fmt.Fprintf(out, "%s %s\n", ui.HeaderColor("Command:"), ui.BinaryColor(command.Command))

	if len(command.Variables) > 0 {
		fmt.Fprintln(out, ui.HeaderColor("Variables:"))
		for _, variable := range command.Variables {
			fmt.Fprintf(out, "  %s=%s\n", ui.VariableColor(variable.Name), variable.Value)
		}
	}

	if len(command.Args) > 0 {
		fmt.Fprintln(out, ui.HeaderColor("Arguments:"))
		for _, arg := range command.Args {
			fmt.Fprintf(out, "  %s\n", ui.ArgumentColor(arg))
		}
	}

	if len(dropped) > 0 {
		fmt.Fprintf(out, "%s %s\n", ui.WarningColor("Ignored env options:"), strings.Join(dropped, " "))
	}
}
