package util

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"go-dive-auth/pkg/apierror"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\s]+`)

const maxFilenameRunes = 255

// SanitizeFilename reduces a client-supplied upload name to a safe base name.
// Directory components are dropped, control and invisible characters removed,
// and runs of unsafe characters or whitespace collapsed to a single underscore.
func SanitizeFilename(name string) (string, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if trimmed == "" {
		return "", apierror.Validation(apierror.ReasonInvalidField, "filename cannot be empty")
	}

	base := path.Base(trimmed)

	builder := strings.Builder{}
	builder.Grow(len(base))
	for _, char := range base {
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := invalidFilenameChars.ReplaceAllString(builder.String(), "_")
	cleaned = strings.Trim(cleaned, "._")

	if cleaned == "" {
		return "", apierror.Validation(apierror.ReasonInvalidField, "filename is invalid after sanitization").WithDetails(trimmed)
	}

	// Truncate by runes but keep the extension intact.
	runes := []rune(cleaned)
	if len(runes) > maxFilenameRunes {
		ext := []rune(path.Ext(cleaned))
		if len(ext) >= maxFilenameRunes {
			ext = nil
		}
		runes = append(runes[:maxFilenameRunes-len(ext)], ext...)
	}

	return string(runes), nil
}

// isInvisibleUnicode returns true for zero-width and other formatting characters.
func isInvisibleUnicode(r rune) bool {
	return unicode.Is(unicode.Cf, r)
}
