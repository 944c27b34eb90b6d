// Package validity decides whether a desktop entry can actually be launched: it has a name, its
// Exec key tokenizes, and the program it starts is installed.
package validity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleb2000/DesktopFileEditor/desktop"
	"github.com/aleb2000/DesktopFileEditor/shellparse"
)

var (
	ErrExecParse            = errors.New("Exec parse error")
	ErrSteamAppNotInstalled = errors.New("Steam app not installed")
	ErrBinaryNotFound       = errors.New("binary not found")
)

// SteamLibrary reports whether a Steam game is installed. [steam.Library] implements it.
type SteamLibrary interface {
	IsAppInstalled(appID uint64) bool
}

// Checker validates desktop entries.
type Checker struct {
	// SearchPath are the directories searched for binaries without a slash.
	SearchPath []string

	// Steam is used for Exec keys launching Steam games. Nil skips the installation check.
	Steam SteamLibrary

	// FlattenEnv resolves `env VAR=value binary` to binary before the lookup.
	FlattenEnv bool
}

// NewChecker returns a Checker that flattens env invocations.
func NewChecker(searchPath []string, steam SteamLibrary) *Checker {
	return &Checker{
		SearchPath: searchPath,
		Steam:      steam,
		FlattenEnv: true,
	}
}

// DefaultSearchPath returns the directories of $PATH followed by extra.
// Sandboxed environments add the host's directories, e.g. /run/host/bin, as extra.
func DefaultSearchPath(extra ...string) []string {
	var result []string
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir != "" {
			result = append(result, dir)
		}
	}

	return append(result, extra...)
}

// Status is the outcome of Check.
type Status struct {
	// EmptyName is true when the entry has no default Name.
	EmptyName bool

	// Command is the tokenized, and possibly flattened, Exec key. Nil if there is none.
	Command *shellparse.Command

	// BinaryPath is the resolved location of the program.
	BinaryPath string

	// Dropped holds the env options, such as -i, that flattening discarded.
	Dropped []string

	// ExecErr is nil when the program was found or when the entry has no Exec key.
	ExecErr error
}

// IsValid returns true if the entry has a name and a launchable Exec key.
func (s Status) IsValid() bool {
	return !s.EmptyName && s.ExecErr == nil
}

// Reason describes why the entry is invalid, one problem per line.
// It is empty for valid entries.
func (s Status) Reason() string {
	var reasons []string

	if s.EmptyName {
		reasons = append(reasons, "Missing name field")
	}

	if s.ExecErr != nil {
		reasons = append(reasons, s.ExecErr.Error())
	}

	return strings.Join(reasons, "\n")
}

// Check validates entry. A missing Exec key is not an error, an empty one is.
func (c *Checker) Check(entry *desktop.Entry) Status {
	status := Status{EmptyName: entry.Name.Default == ""}

	if !entry.HasExec && entry.Exec == "" {
		return status
	}

	command, dropped, err := c.ResolveCommand(entry.Exec)
	status.Command = command
	status.Dropped = dropped
	if err != nil {
		status.ExecErr = err
		return status
	}

	status.BinaryPath, status.ExecErr = c.LookPath(command.Command)

	return status
}

// ResolveCommand tokenizes exec, verifies that Steam games are installed and flattens env
// invocations. The env options dropped by flattening are returned as well.
func (c *Checker) ResolveCommand(exec string) (*shellparse.Command, []string, error) {
	command, ok := shellparse.Parse(exec)
	if !ok {
		return nil, nil, ErrExecParse
	}

	if c.Steam != nil && command.IsSteamApp() {
		appID, _ := command.SteamAppID()
		if !c.Steam.IsAppInstalled(appID) {
			return command, nil, fmt.Errorf("%w: %d", ErrSteamAppNotInstalled, appID)
		}
	}

	var dropped []string
	if c.FlattenEnv {
		dropped = command.FlattenEnv()
	}

	return command, dropped, nil
}

// ResolveBinary returns the name of the program exec starts.
func (c *Checker) ResolveBinary(exec string) (string, error) {
	command, _, err := c.ResolveCommand(exec)
	if err != nil {
		return "", err
	}

	return command.Command, nil
}

// LookPath finds binary like which(1).
// Names containing a slash are checked as is, other names are searched in SearchPath.
// The result must be a regular file with at least one execute bit set.
func (c *Checker) LookPath(binary string) (string, error) {
	if strings.Contains(binary, "/") {
		if err := checkExecutable(binary); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrBinaryNotFound, binary, err)
		}
		return binary, nil
	}

	for _, dir := range c.SearchPath {
		path := filepath.Join(dir, binary)
		if checkExecutable(path) == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, binary)
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		return fs.ErrPermission
	}

	return nil
}
