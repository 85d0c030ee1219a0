package util

import (
	"mime"
	"path/filepath"
	"strings"
)

// documentTypes maps the accepted document extensions to their canonical MIME type.
var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// FileExtension returns the lower-cased extension of name, including the dot.
func FileExtension(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}

// DocumentMIMEForExtension returns the canonical MIME type for an accepted document extension.
func DocumentMIMEForExtension(extension string) (string, bool) {
	mimeType, ok := documentTypes[strings.ToLower(strings.TrimSpace(extension))]
	return mimeType, ok
}

// NormalizeMIME strips parameters and lower-cases a declared content type.
func NormalizeMIME(contentType string) string {
	cleaned := strings.ToLower(strings.TrimSpace(contentType))
	if cleaned == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(cleaned)
	if err != nil {
		if idx := strings.Index(cleaned, ";"); idx >= 0 {
			return strings.TrimSpace(cleaned[:idx])
		}
		return cleaned
	}

	return mediaType
}

// mimeAliases maps non-canonical types some clients declare to the canonical one.
var mimeAliases = map[string]string{
	"image/jpg":         "image/jpeg",
	"image/pjpeg":       "image/jpeg",
	"image/x-png":       "image/png",
	"application/x-pdf": "application/pdf",
}

// DeclaredMIMEMatches reports whether a declared content type names the
// canonical type of the file's extension.
func DeclaredMIMEMatches(declared string, canonical string) bool {
	normalized := NormalizeMIME(declared)
	if alias, ok := mimeAliases[normalized]; ok {
		normalized = alias
	}

	return normalized == NormalizeMIME(canonical)
}

// IsGenericMIME reports content types clients send when they do not know better.
func IsGenericMIME(mimeType string) bool {
	switch NormalizeMIME(mimeType) {
	case "", "application/octet-stream", "binary/octet-stream":
		return true
	default:
		return false
	}
}

// AllowedDocumentExtensions lists accepted extensions without the dot, for error messages.
func AllowedDocumentExtensions() []string {
	return []string{"pdf", "jpg", "jpeg", "png"}
}
