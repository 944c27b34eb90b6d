package desktop

import "github.com/aleb2000/DesktopFileEditor/shellparse"

// Entry is the [Desktop Entry] group of a desktop file.
//
// [Desktop Entry]: https://specifications.freedesktop.org/desktop-entry-spec/1.5/recognized-keys.html
type Entry struct {
	// Type is Application, Link or Directory. Unknown types are kept as is.
	Type string

	// Version of the Desktop Entry Specification the file conforms to.
	Version string

	// Name is the specific name of the application, for example "Firefox".
	// An entry without a name is loaded but reported as invalid by the validity checker.
	Name LocaleString

	// GenericName is a generic name of the application, for example "Web Browser".
	GenericName LocaleString

	// NoDisplay means the application exists but should not be shown in menus.
	NoDisplay bool

	// Comment is the tooltip of the entry.
	Comment LocaleString

	// Icon is an icon name or an absolute path to an image.
	Icon LocaleString

	// Hidden means the user deleted the entry. It is equivalent to the file not existing.
	Hidden bool

	// OnlyShowIn and NotShowIn restrict the desktop environments the entry is shown in.
	OnlyShowIn []string
	NotShowIn  []string

	// DBusActivatable means the application should be launched over D-Bus instead of Exec.
	DBusActivatable bool

	// TryExec is an executable used to determine whether the program is installed.
	TryExec string

	// Exec is the raw command line, with the escape sequences of the desktop entry string type
	// already resolved. Use Command to tokenize it.
	Exec string

	// HasExec is true if the Exec key is present, even with an empty value.
	HasExec bool

	// Path is the working directory of the program.
	Path string

	// Terminal is true if the program runs in a terminal window.
	Terminal bool

	// Actions are the additional application actions listed in the Actions key.
	Actions []Action

	MimeType   []string
	Categories []string
	Implements []string
	Keywords   LocaleStrings

	// StartupNotify is one of StartupNotifyUnset, StartupNotifyTrue or StartupNotifyFalse.
	StartupNotify int

	StartupWMClass string

	// URL is present on Type == Link.
	URL string

	PrefersNonDefaultGPU bool
	SingleMainWindow     bool

	// OtherKeys holds the remaining keys of the Desktop Entry group, such as X- extensions.
	OtherKeys map[string]string

	// OtherGroups holds every group other than Desktop Entry, by group name.
	OtherGroups map[string]map[string]string
}

// Action is an [additional application action].
//
// [additional application action]: https://specifications.freedesktop.org/desktop-entry-spec/1.5/extra-actions.html
type Action struct {
	// ID is the identifier used in the Actions key and the group name.
	ID   string
	Name LocaleString
	Icon LocaleString
	Exec string
}

// Command tokenizes the Exec key.
// False is returned when the key is absent or holds no command.
func (e *Entry) Command() (*shellparse.Command, bool) {
	return shellparse.Parse(e.Exec)
}

// Command tokenizes the Exec key of the action.
func (a *Action) Command() (*shellparse.Command, bool) {
	return shellparse.Parse(a.Exec)
}

// ShouldShow returns false if the entry is hidden from menus through NoDisplay or Hidden.
func (e *Entry) ShouldShow() bool {
	return !e.NoDisplay && !e.Hidden
}
