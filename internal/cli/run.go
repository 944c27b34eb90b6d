package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/aleb2000/DesktopFileEditor/desktop"
	"github.com/aleb2000/DesktopFileEditor/internal/ui"
	"github.com/spf13/cobra"
)

var ErrNoExec = errors.New("desktop entry has no Exec key")

type runOptions struct {
	dryRun bool
	action string
}

// NewRunCommand creates the 'run' subcommand.
func NewRunCommand(app *App) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <file.desktop> [file or url]...",
		Short: "Launch a desktop entry.",
		Long: `Tokenizes the Exec key of a desktop entry, replaces its field codes with the given
files or URLs and starts the program in its own session. Environment variables set in the
Exec key, including those of an env invocation, are added to the environment of the program.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunCmd(cmd.OutOrStdout(), app, args[0], args[1:], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "print the command instead of starting it")
	cmd.Flags().StringVarP(&opts.action, "action", "a", "", "launch the desktop action with this ID")

	return cmd
}

func runRunCmd(out io.Writer, app *App, path string, targets []string, opts *runOptions) error {
	entry, err := desktop.LoadFile(path)
	if err != nil {
		return err
	}

	execLine, err := selectExec(entry, opts.action)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	checker := app.Config.Checker()

	command, dropped, err := checker.ResolveCommand(execLine)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	binary, err := checker.LookPath(command.Command)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if len(targets) > 0 && !desktop.CanOpenFiles(command.Args) {
		fmt.Fprintln(out, ui.WarningColor("The entry does not accept files or URLs, ignoring them."))
	}

	args := desktop.ExpandFieldCodes(command.Args, fieldCodes(entry, path, targets))

	cmd := exec.Command(binary, args...)
	cmd.Args[0] = command.Command
	cmd.Env = append(os.Environ(), command.Environ()...)
	cmd.Dir = entry.Path

	if len(dropped) > 0 {
		fmt.Fprintf(out, "%s %s\n", ui.WarningColor("Ignoring env options:"), strings.Join(dropped, " "))
	}

	if opts.dryRun {
		writeDryRun(out, binary, args, command.Environ(), entry.Path)
		return nil
	}

	if err := app.start(cmd); err != nil {
		return fmt.Errorf("could not start %s: %w", binary, err)
	}

	message := fmt.Sprintf("Started %s", entry.Name.Default)
	if cmd.Process != nil {
		message += fmt.Sprintf(" (pid %d)", cmd.Process.Pid)
	}
	fmt.Fprintln(out, ui.SuccessColor(message))

	return nil
}

func selectExec(entry *desktop.Entry, actionID string) (string, error) {
	if actionID == "" {
		if entry.Exec == "" {
			return "", ErrNoExec
		}
		return entry.Exec, nil
	}

	for _, action := range entry.Actions {
		if action.ID != actionID {
			continue
		}
		if action.Exec == "" {
			return "", fmt.Errorf("action %s: %w", actionID, ErrNoExec)
		}
		return action.Exec, nil
	}

	return "", fmt.Errorf("desktop entry has no action %q", actionID)
}

// fieldCodes fills %f and %u with the first target and %F and %U with all of them.
func fieldCodes(entry *desktop.Entry, path string, targets []string) desktop.FieldCodeProvider {
	first := func() string {
		if len(targets) == 0 {
			return ""
		}
		return targets[0]
	}
	all := func() []string { return targets }

	return desktop.FieldCodeProvider{
		GetDesktopFileLocation: func() string { return path },
		GetFile:                first,
		GetFiles:               all,
		GetIcon:                func() string { return entry.Icon.Default },
		GetName:                func() string { return entry.Name.ToLocale(os.Getenv("LANG")) },
		GetUrl:                 first,
		GetUrls:                all,
	}
}

func writeDryRun(out io.Writer, binary string, args []string, env []string, dir string) {
	if len(env) > 0 {
		fmt.Fprintln(out, ui.HeaderColor("Environment:"))
		for _, variable := range env {
			fmt.Fprintf(out, "  %s\n", ui.VariableColor(variable))
		}
	}

	if dir != "" {
		fmt.Fprintf(out, "%s %s\n", ui.HeaderColor("Directory:"), dir)
	}

	fmt.Fprintf(out, "%s %s\n", ui.HeaderColor("Binary:"), ui.BinaryColor(binary))

	if len(args) > 0 {
		fmt.Fprintln(out, ui.HeaderColor("Arguments:"))
		for _, arg := range args {
			fmt.Fprintf(out, "  %s\n", ui.ArgumentColor(arg))
		}
	}
}

// startDetached starts cmd in a new session without waiting for it, so the program outlives
// deskexec.
func startDetached(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	return cmd.Start()
}
