package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/aleb2000/DesktopFileEditor/desktop"
	"github.com/aleb2000/DesktopFileEditor/internal/ui"
	"github.com/aleb2000/DesktopFileEditor/mimeapps"
	"github.com/aleb2000/DesktopFileEditor/sharedmimeinfo"
	"github.com/aleb2000/DesktopFileEditor/validity"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type handlersOptions struct {
	strict     bool
	noFallback bool
}

// NewHandlersCommand creates the 'handlers' subcommand.
func NewHandlersCommand(app *App) *cobra.Command {
	opts := &handlersOptions{}

	cmd := &cobra.Command{
		Use:   "handlers <mime-type>...",
		Short: "Check the applications that open a MIME type.",
		Long: `Lists the preferred applications of each MIME type according to the mimeapps.list
files and the MimeType keys of the installed desktop entries, and checks whether they can be
launched. When no application handles a type, its broader types are tried, for example
text/plain for text/x-csrc.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandlersCmd(cmd.OutOrStdout(), app, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with an error if a type has no launchable application")
	cmd.Flags().BoolVar(&opts.noFallback, "no-fallback", false, "do not try broader MIME types")

	return cmd
}

func runHandlersCmd(out io.Writer, app *App, mimeTypes []string, opts *handlersOptions) error {
	files, err := desktop.GetDesktopFiles(app.Config.ApplicationLocations())
	if err != nil {
		return fmt.Errorf("could not list desktop files: %w", err)
	}

	resolver := mimeapps.NewResolver(mimeapps.Lists(os.Getenv("XDG_CURRENT_DESKTOP")), files)

	var hierarchy *sharedmimeinfo.Hierarchy
	if !opts.noFallback {
		hierarchy, err = sharedmimeinfo.Load()
		if err != nil {
			// A nil hierarchy still falls back to text/plain and application/octet-stream.
			log.Printf("Failed to load the MIME database: %v. Skipping\n", err)
		}
	}

	checker := app.Config.Checker()

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"MIME Type", "Via", "Desktop ID", "Name", "Status"})
	table.SetBorder(true)
	table.SetAutoWrapText(false)

	unhandled := 0
	for _, mime := range mimeTypes {
		via, ids := resolveHandlers(resolver, hierarchy, mime, opts.noFallback)
		if len(ids) == 0 {
			unhandled++
			table.Append([]string{mime, "-", "-", "-", ui.ErrorColor("no application")})
			continue
		}

		used := false
		for _, id := range ids {
			entry, _ := files.LoadById(id)
			if entry == nil {
				table.Append([]string{mime, via, id, "-", ui.ErrorColor("failed to load")})
				continue
			}

			status := handlerStatus(checker, entry, &used)
			table.Append([]string{mime, via, id, entry.Name.Default, status})
		}

		if !used {
			unhandled++
		}
	}
	table.Render()

	if unhandled > 0 && opts.strict {
		return fmt.Errorf("%d MIME types have no launchable application", unhandled)
	}

	return nil
}

// resolveHandlers returns the preferred applications of mime or, if there are none, of its
// nearest ancestor that has some. via is the type the applications were found for.
func resolveHandlers(
	resolver *mimeapps.Resolver,
	hierarchy *sharedmimeinfo.Hierarchy,
	mime string,
	noFallback bool,
) (string, []string) {
	if ids := resolver.Preferred(mime); len(ids) > 0 || noFallback {
		return mime, ids
	}

	if canonical := hierarchy.Canonical(mime); canonical != mime {
		if ids := resolver.Preferred(canonical); len(ids) > 0 {
			return canonical, ids
		}
	}

	for _, ancestor := range hierarchy.Ancestors(mime) {
		if ids := resolver.Preferred(ancestor); len(ids) > 0 {
			return ancestor, ids
		}
	}

	return mime, nil
}

// handlerStatus checks entry and marks the first valid handler as the one that is used.
func handlerStatus(checker *validity.Checker, entry *desktop.Entry, used *bool) string {
	status := checker.Check(entry)
	if !status.IsValid() {
		return ui.ErrorColor(status.Reason())
	}

	if *used {
		return ui.SuccessColor("valid")
	}
	*used = true

	return ui.SuccessColor("valid, used")
}
