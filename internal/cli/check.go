package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/aleb2000/DesktopFileEditor/desktop"
	"github.com/aleb2000/DesktopFileEditor/internal/ui"
	"github.com/aleb2000/DesktopFileEditor/validity"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	strict      bool
	invalidOnly bool
}

// checkResult is a checked desktop entry.
type checkResult struct {
	id     string
	entry  *desktop.Entry
	status validity.Status
}

// NewCheckCommand creates the 'check' subcommand.
func NewCheckCommand(app *App) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [path]...",
		Short: "Check whether desktop entries can be launched.",
		Long: `Loads the given desktop files, or every desktop file in the given directories, and
reports whether the program of each entry is installed. Without arguments the XDG
applications directories are checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckCmd(cmd.OutOrStdout(), app, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with an error if an entry is invalid")
	cmd.Flags().BoolVar(&opts.invalidOnly, "invalid", false, "only list invalid entries")

	return cmd
}

func runCheckCmd(out io.Writer, app *App, paths []string, opts *checkOptions) error {
	var results []checkResult
	var err error
	if len(paths) == 0 {
		results, err = loadDirs(app.Config.ApplicationLocations())
	} else {
		results, err = loadEntries(paths)
	}
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(out, ui.InfoColor("No desktop entries found."))
		return nil
	}

	checker := app.Config.Checker()
	invalid := 0
	for i := range results {
		results[i].status = checker.Check(results[i].entry)
		if !results[i].status.IsValid() {
			invalid++
		}
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Desktop ID", "Name", "Binary", "Status"})
	table.SetBorder(true)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for _, result := range results {
		if opts.invalidOnly && result.status.IsValid() {
			continue
		}
		name := result.entry.Name.Default
		if !result.entry.ShouldShow() {
			name += ui.DetailColor(" (hidden)")
		}
		table.Append([]string{result.id, name, binaryColumn(result.status), statusColumn(result.status)})
	}
	table.Render()

	if invalid == 0 {
		fmt.Fprintln(out, ui.SuccessColor(fmt.Sprintf("All %d entries are valid.", len(results))))
		return nil
	}

	fmt.Fprintln(out, ui.WarningColor(fmt.Sprintf("%d of %d entries are invalid.", invalid, len(results))))
	if opts.strict {
		return fmt.Errorf("%d invalid desktop entries", invalid)
	}

	return nil
}

func binaryColumn(status validity.Status) string {
	switch {
	case status.BinaryPath != "":
		return status.BinaryPath
	case status.Command != nil:
		return status.Command.Command
	default:
		return ui.DetailColor("-")
	}
}

func statusColumn(status validity.Status) string {
	if status.IsValid() {
		return ui.SuccessColor("valid")
	}

	return ui.ErrorColor(status.Reason())
}

// loadEntries loads the desktop files at paths. Directories are searched for desktop files and
// entries sharing a desktop ID are resolved to the first directory containing it.
// Files that fail to load are logged and skipped.
func loadEntries(paths []string) ([]checkResult, error) {
	var results []checkResult
	var dirs []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Printf("Failed to stat %s: %v. Skipping\n", path, err)
				continue
			}
			return nil, fmt.Errorf("could not stat %s: %w", path, err)
		}

		if info.IsDir() {
			dirs = append(dirs, path)
			continue
		}

		entry, err := desktop.LoadFile(path)
		if err != nil {
			log.Printf("Failed to load %s: %v. Skipping\n", path, err)
			continue
		}
		results = append(results, checkResult{id: filepath.Base(path), entry: entry})
	}

	if len(dirs) == 0 {
		return results, nil
	}

	dirResults, err := loadDirs(dirs)
	if err != nil {
		return nil, err
	}

	return append(results, dirResults...), nil
}

// loadDirs loads the desktop files in dirs, sorted by desktop ID. Directories that do not exist
// are skipped.
func loadDirs(dirs []string) ([]checkResult, error) {
	files, err := desktop.GetDesktopFiles(dirs)
	if err != nil {
		return nil, fmt.Errorf("could not list desktop files: %w", err)
	}

	ids := make([]string, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]checkResult, 0, len(ids))
	for _, id := range ids {
		entry, _ := files.LoadById(id)
		if entry == nil {
			continue
		}
		results = append(results, checkResult{id: id, entry: entry})
	}

	return results, nil
}
