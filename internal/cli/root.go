package cli

import (
	"fmt"
	"os/exec"

	"github.com/aleb2000/DesktopFileEditor/config"
	"github.com/spf13/cobra"
)

// App is the state shared by the subcommands.
type App struct {
	ConfigPath string
	Config     *config.Config

	// start launches the process of the run command.
	start func(cmd *exec.Cmd) error
}

func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, &App{start: startDetached})
}

func newRootCommand(version string, app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deskexec",
		Short: "deskexec inspects and launches desktop entries.",
		Long: `deskexec tokenizes the Exec key of desktop entries, checks whether the programs
they start are installed and launches them with their environment variables.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigPath)
			if err != nil {
				return fmt.Errorf("could not load configuration: %w", err)
			}
			app.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "",
		"configuration file (default $XDG_CONFIG_HOME/"+config.FileSuffix+")")

	cmd.AddCommand(NewParseCommand(app))
	cmd.AddCommand(NewCheckCommand(app))
	cmd.AddCommand(NewRunCommand(app))
	cmd.AddCommand(NewHandlersCommand(app))

	return cmd
}
