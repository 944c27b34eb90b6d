package desktop

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const (
	desktopActionPrefix = "Desktop Action "
	requiredGroupName   = "Desktop Entry"
	requiredGroupHeader = "[" + requiredGroupName + "]"
)

const (
	StartupNotifyUnset = iota
	StartupNotifyTrue
	StartupNotifyFalse
)

const (
	TypeApplication = "Application"
	TypeLink        = "Link"
	TypeDirectory   = "Directory"
)

var (
	ErrActionHasNoGroup = errors.New("action has no matching Desktop Action group")
	ErrDuplicateGroup   = errors.New("duplicate group")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrEscapeIncomplete = errors.New("unexpected end of string, escape sequence not completed")
	ErrInvalidBoolean   = errors.New("invalid boolean value")
	ErrInvalidKey       = errors.New("invalid key")
	ErrMalformedLine    = errors.New("line is neither a group header nor a key-value pair")
	ErrMissingHeader    = errors.New("first group must be " + requiredGroupHeader)
)

// ParseError reports the line, starting at 1, on which parsing failed.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure on line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type parser struct {
	entry Entry

	// group is the name of the current group, empty while in the Desktop Entry group.
	group      string
	seenGroups map[string]bool
	seenKeys   map[string]bool

	// declaredActions maps the IDs of the Actions key to whether their group was found.
	declaredActions map[string]bool
	action          *Action
}

// Parse reads a desktop file.
// Blank lines and comments are skipped, the first group must be [Desktop Entry].
// Unlike stricter loaders, entries without Name or Type are returned without error, it is up to
// the caller to decide whether such an entry is usable.
func Parse(reader io.Reader) (*Entry, error) {
	p := parser{
		seenGroups:      make(map[string]bool),
		seenKeys:        make(map[string]bool),
		declaredActions: make(map[string]bool),
	}

	sc := bufio.NewScanner(reader)
	lineNumber := 0
	for sc.Scan() {
		lineNumber++
		line := strings.TrimRight(sc.Text(), " \t")
		if lineNumber == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := p.parseLine(line); err != nil {
			return &p.entry, &ParseError{Line: lineNumber, Err: err}
		}
	}

	if err := sc.Err(); err != nil {
		return &p.entry, fmt.Errorf("Parse: failed reading line %d: %w", lineNumber+1, err)
	}

	if len(p.seenGroups) == 0 {
		return &p.entry, ErrMissingHeader
	}

	p.closeAction()

	for id, hasGroup := range p.declaredActions {
		if !hasGroup {
			return &p.entry, fmt.Errorf("Parse: %w: %q", ErrActionHasNoGroup, id)
		}
	}

	return &p.entry, nil
}

func (p *parser) parseLine(line string) error {
	if len(p.seenGroups) == 0 {
		if line != requiredGroupHeader {
			return fmt.Errorf("%w, found %s", ErrMissingHeader, line)
		}
		p.seenGroups[requiredGroupName] = true
		return nil
	}

	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		return p.startGroup(line[1 : len(line)-1])
	}

	key, value, found := strings.Cut(line, "=")
	if !found {
		return ErrMalformedLine
	}
	key = strings.TrimRight(key, " ")
	value = strings.TrimLeft(value, " ")

	if !isValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	if p.seenKeys[key] {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	p.seenKeys[key] = true

	switch {
	case p.group == "":
		if err := p.applyMainKey(key, value); err != nil {
			return fmt.Errorf("key %s=%s: %w", key, value, err)
		}
	case p.action != nil:
		if err := applyActionKey(p.action, key, value); err != nil {
			return fmt.Errorf("action %s, key %s=%s: %w", p.action.ID, key, value, err)
		}
	default:
		p.entry.OtherGroups[p.group][key] = value
	}

	return nil
}

func (p *parser) startGroup(name string) error {
	p.closeAction()

	if p.seenGroups[name] {
		return fmt.Errorf("%w: %s", ErrDuplicateGroup, name)
	}
	p.seenGroups[name] = true
	p.group = name
	clear(p.seenKeys)

	// Action groups that are not listed in the Actions key are ignored.
	if id, ok := strings.CutPrefix(name, desktopActionPrefix); ok {
		if _, declared := p.declaredActions[id]; declared {
			p.declaredActions[id] = true
			p.action = &Action{ID: id}
		}
	}

	if p.entry.OtherGroups == nil {
		p.entry.OtherGroups = make(map[string]map[string]string)
	}
	p.entry.OtherGroups[name] = make(map[string]string)

	return nil
}

// closeAction stores the action that is being read, if any.
func (p *parser) closeAction() {
	if p.action != nil && p.action.Name.Default != "" {
		p.entry.Actions = append(p.entry.Actions, *p.action)
	}
	p.action = nil
}

func isValidKey(key string) bool {
	if key == "" || strings.HasSuffix(key, "[]") {
		return false
	}

	return isAsciiNoControl(key)
}

// splitLocale separates Name[nl_BE] into Name and nl_BE.
func splitLocale(key string) (string, string, error) {
	if !strings.HasSuffix(key, "]") {
		return key, "", nil
	}

	start := strings.Index(key, "[")
	if start == -1 {
		return "", "", fmt.Errorf("%w: no opening bracket in %s", ErrInvalidKey, key)
	}

	return key[:start], key[start+1 : len(key)-1], nil
}

func isAsciiNoControl(value string) bool {
	for _, r := range value {
		if r > unicode.MaxASCII || unicode.IsControl(r) {
			return false
		}
	}

	return true
}

func (p *parser) applyMainKey(rawKey string, value string) error {
	key, locale, err := splitLocale(rawKey)
	if err != nil {
		return err
	}

	e := &p.entry

	switch key {
	case "Actions":
		ids, err := splitEscapedString(value)
		if err != nil {
			return err
		}
		for _, id := range ids {
			p.declaredActions[id] = false
		}
		return nil
	case "Type":
		return assignString(&e.Type, value)
	case "Version":
		return assignString(&e.Version, value)
	case "Name":
		return assignLocaleString(&e.Name, locale, value)
	case "GenericName":
		return assignLocaleString(&e.GenericName, locale, value)
	case "Comment":
		return assignLocaleString(&e.Comment, locale, value)
	case "Icon":
		return assignLocaleString(&e.Icon, locale, value)
	case "Keywords":
		return assignLocaleStrings(&e.Keywords, locale, value)
	case "NoDisplay":
		return assignBoolean(&e.NoDisplay, value)
	case "Hidden":
		return assignBoolean(&e.Hidden, value)
	case "DBusActivatable":
		return assignBoolean(&e.DBusActivatable, value)
	case "Terminal":
		return assignBoolean(&e.Terminal, value)
	case "PrefersNonDefaultGPU":
		return assignBoolean(&e.PrefersNonDefaultGPU, value)
	case "SingleMainWindow":
		return assignBoolean(&e.SingleMainWindow, value)
	case "OnlyShowIn":
		return assignList(&e.OnlyShowIn, value)
	case "NotShowIn":
		return assignList(&e.NotShowIn, value)
	case "MimeType":
		return assignList(&e.MimeType, value)
	case "Categories":
		return assignList(&e.Categories, value)
	case "Implements":
		return assignList(&e.Implements, value)
	case "TryExec":
		return assignRaw(&e.TryExec, value)
	case "Exec":
		e.HasExec = true
		return assignExec(&e.Exec, value)
	case "Path":
		return assignRaw(&e.Path, value)
	case "StartupWMClass":
		return assignString(&e.StartupWMClass, value)
	case "URL":
		return assignString(&e.URL, value)
	case "StartupNotify":
		var notify bool
		if err := assignBoolean(&notify, value); err != nil {
			return err
		}
		e.StartupNotify = StartupNotifyFalse
		if notify {
			e.StartupNotify = StartupNotifyTrue
		}
		return nil
	}

	if e.OtherKeys == nil {
		e.OtherKeys = make(map[string]string)
	}
	e.OtherKeys[rawKey] = value

	return nil
}

func applyActionKey(action *Action, rawKey string, value string) error {
	key, locale, err := splitLocale(rawKey)
	if err != nil {
		return err
	}

	switch key {
	case "Name":
		return assignLocaleString(&action.Name, locale, value)
	case "Icon":
		return assignLocaleString(&action.Icon, locale, value)
	case "Exec":
		return assignExec(&action.Exec, value)
	}

	return nil
}

func assignBoolean(target *bool, value string) error {
	switch value {
	case "true":
		*target = true
	case "false":
		*target = false
	default:
		return fmt.Errorf("%w: %s", ErrInvalidBoolean, value)
	}

	return nil
}

// assignString assigns a value of the ASCII only string type.
func assignString(target *string, value string) error {
	if !isAsciiNoControl(value) {
		return fmt.Errorf("value of type string must be ASCII, got: %s", value)
	}

	return assignRaw(target, value)
}

// assignRaw assigns an unescaped value without restricting the character set.
// Exec and Path are used on non-ASCII file systems even though they are specified as strings.
func assignRaw(target *string, value string) error {
	unescaped, err := unescapeString(value)
	if err != nil {
		return err
	}

	*target = unescaped
	return nil
}

// assignExec is assignRaw but keeps a lone trailing backslash, which the Exec tokenizer ignores.
func assignExec(target *string, value string) error {
	err := assignRaw(target, value)
	if !errors.Is(err, ErrEscapeIncomplete) {
		return err
	}

	if err := assignRaw(target, value[:len(value)-1]); err != nil {
		return err
	}
	*target += `\`

	return nil
}

func assignList(target *[]string, value string) error {
	if !isAsciiNoControl(value) {
		return fmt.Errorf("value of type string(s) must be ASCII, got: %s", value)
	}

	list, err := splitEscapedString(value)
	if err != nil {
		return err
	}

	*target = list
	return nil
}

func assignLocaleString(target *LocaleString, locale string, value string) error {
	unescaped, err := unescapeString(value)
	if err != nil {
		return err
	}

	if locale == "" {
		target.Default = unescaped
		return nil
	}

	if target.Localized == nil {
		target.Localized = make(map[string]string)
	}
	target.Localized[locale] = unescaped

	return nil
}

func assignLocaleStrings(target *LocaleStrings, locale string, value string) error {
	list, err := splitEscapedString(value)
	if err != nil {
		return err
	}

	if locale == "" {
		target.Default = list
		return nil
	}

	if target.Localized == nil {
		target.Localized = make(map[string][]string)
	}
	target.Localized[locale] = list

	return nil
}

// unescapeString resolves \s, \n, \t, \r and \\ as defined in
// https://specifications.freedesktop.org/desktop-entry-spec/1.5/value-types.html.
// Other escapes are kept verbatim, Exec relies on this for its own quoting rules.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var builder strings.Builder
	builder.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			builder.WriteByte(s[i])
			continue
		}

		if i+1 == len(s) {
			return "", ErrEscapeIncomplete
		}

		i++
		switch s[i] {
		case 's':
			builder.WriteByte(' ')
		case 'n':
			builder.WriteByte('\n')
		case 't':
			builder.WriteByte('\t')
		case 'r':
			builder.WriteByte('\r')
		case '\\':
			builder.WriteByte('\\')
		default:
			builder.WriteByte('\\')
			builder.WriteByte(s[i])
		}
	}

	return builder.String(), nil
}

// splitEscapedString splits a list value on semicolons that are not escaped and unescapes every
// item. A trailing semicolon does not produce an empty item.
func splitEscapedString(s string) ([]string, error) {
	var result []string
	var current strings.Builder
	escaped := false

	for _, r := range s {
		switch {
		case escaped && r == ';':
			current.WriteRune(';')
			escaped = false
		case escaped:
			current.WriteRune('\\')
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ';':
			result = append(result, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	if escaped {
		return nil, ErrEscapeIncomplete
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	for i := range result {
		unescaped, err := unescapeString(result[i])
		if err != nil {
			return nil, err
		}
		result[i] = unescaped
	}

	return result, nil
}
