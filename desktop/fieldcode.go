package desktop

import "strings"

// FieldCodeProvider supplies the values of the [Exec field codes].
// A nil function, an empty string, or an empty slice leaves the field code without a value.
//
// [Exec field codes]: https://specifications.freedesktop.org/desktop-entry-spec/1.5/exec-variables.html
type FieldCodeProvider struct {
	// GetDesktopFileLocation relates to %k.
	GetDesktopFileLocation func() string

	// GetFile relates to %f.
	GetFile func() string

	// GetFiles relates to %F.
	GetFiles func() []string

	// GetIcon relates to %i.
	GetIcon func() string

	// GetName relates to %c, the translated name of the application.
	GetName func() string

	// GetUrl relates to %u.
	GetUrl func() string

	// GetUrls relates to %U.
	GetUrls func() []string
}

func call(f func() string) string {
	if f == nil {
		return ""
	}

	return f()
}

func callList(f func() []string) []string {
	if f == nil {
		return nil
	}

	return f()
}

// ExpandFieldCodes replaces the field codes in already tokenized arguments.
//
// %F, %U and %i expand to zero or more arguments and are only recognized as a whole argument.
// %f, %u, %c and %k are replaced wherever they occur. The deprecated %d, %D, %n, %N, %v and %m
// are removed and %% becomes %. An argument that only consisted of field codes without a value
// is removed. Unknown field codes are kept as is.
func ExpandFieldCodes(args []string, p FieldCodeProvider) []string {
	result := make([]string, 0, len(args))

	for _, arg := range args {
		switch arg {
		case "%F":
			result = append(result, callList(p.GetFiles)...)
			continue
		case "%U":
			result = append(result, callList(p.GetUrls)...)
			continue
		case "%i":
			if icon := call(p.GetIcon); icon != "" {
				result = append(result, "--icon", icon)
			}
			continue
		}

		expanded, hadFieldCode := expandInline(arg, p)
		if expanded == "" && hadFieldCode {
			continue
		}
		result = append(result, expanded)
	}

	return result
}

// expandInline expands the field codes that can be part of a larger argument.
func expandInline(arg string, p FieldCodeProvider) (string, bool) {
	if !strings.Contains(arg, "%") {
		return arg, false
	}

	var builder strings.Builder
	hadFieldCode := false

	for i := 0; i < len(arg); i++ {
		if arg[i] != '%' || i+1 == len(arg) {
			builder.WriteByte(arg[i])
			continue
		}

		i++
		code := arg[i]
		switch code {
		case '%':
			builder.WriteByte('%')
			continue
		case 'f':
			builder.WriteString(call(p.GetFile))
		case 'u':
			builder.WriteString(call(p.GetUrl))
		case 'c':
			builder.WriteString(call(p.GetName))
		case 'k':
			builder.WriteString(call(p.GetDesktopFileLocation))
		case 'd', 'D', 'n', 'N', 'v', 'm', 'F', 'U', 'i':
			// Deprecated, or not allowed inside a larger argument.
		default:
			builder.WriteByte('%')
			builder.WriteByte(code)
			continue
		}
		hadFieldCode = true
	}

	return builder.String(), hadFieldCode
}

// CanOpenFiles returns true if the arguments contain a field code for files or URLs.
func CanOpenFiles(args []string) bool {
	for _, arg := range args {
		for i := 0; i+1 < len(arg); i++ {
			if arg[i] != '%' {
				continue
			}

			switch arg[i+1] {
			case 'f', 'F', 'u', 'U':
				return true
			}
			// Skip the code, %%f is an escaped percent sign followed by f.
			i++
		}
	}

	return false
}
