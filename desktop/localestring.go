package desktop

import "regexp"

// LocaleString is a value that can have a translation per locale, such as Name[nl]=Vuurvos.
type LocaleString struct {
	Default   string
	Localized map[string]string
}

// LocaleStrings is the list variant of LocaleString, used by Keywords.
type LocaleStrings struct {
	Default   []string
	Localized map[string][]string
}

var localeRegex = regexp.MustCompile(
	`^([a-z]{2,})(?:_([A-Z]{2}))?(?:\.[a-zA-Z0-9-]+)?(?:@(.+))?$`,
)

// localeKeys returns the keys to try for the given locale, most specific first, as described in
// [Localized values for keys].
// Locale has the format lang_COUNTRY.ENCODING@MODIFIER where _COUNTRY, .ENCODING, and @MODIFIER
// may be omitted. The encoding is never part of a key.
//
// [Localized values for keys]: https://specifications.freedesktop.org/desktop-entry-spec/1.5/localized-keys.html
func localeKeys(locale string) []string {
	matches := localeRegex.FindStringSubmatch(locale)
	if matches == nil {
		return nil
	}

	lang, country, modifier := matches[1], matches[2], matches[3]
	keys := make([]string, 0, 4)

	if country != "" && modifier != "" {
		keys = append(keys, lang+"_"+country+"@"+modifier)
	}
	if country != "" {
		keys = append(keys, lang+"_"+country)
	}
	if modifier != "" {
		keys = append(keys, lang+"@"+modifier)
	}

	return append(keys, lang)
}

// ToLocale returns the best translation for locale, e.g. nl_BE.UTF-8, or the default value.
// Empty translations are skipped.
func (s *LocaleString) ToLocale(locale string) string {
	for _, key := range localeKeys(locale) {
		if value := s.Localized[key]; value != "" {
			return value
		}
	}

	return s.Default
}

// ToLocale returns the best translation for locale or the default list.
func (s *LocaleStrings) ToLocale(locale string) []string {
	for _, key := range localeKeys(locale) {
		if value := s.Localized[key]; len(value) > 0 {
			return value
		}
	}

	return s.Default
}
