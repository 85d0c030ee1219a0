package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// KeyValidator maps document keys onto paths below a fixed root directory.
type KeyValidator struct {
	rootAbs string
}

func NewKeyValidator(root string) (*KeyValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root path cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}

	return &KeyValidator{rootAbs: rootAbs}, nil
}

func (v *KeyValidator) RootAbs() string {
	return v.rootAbs
}

func (v *KeyValidator) Resolve(key string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(key), `\`, "/")
	normalized = strings.TrimPrefix(normalized, "/")
	if normalized == "" {
		return "", fmt.Errorf("document key cannot be empty")
	}

	if strings.Contains(normalized, "\x00") || hasControlCharacters(normalized) {
		return "", fmt.Errorf("document key %q contains invalid characters", key)
	}

	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", fmt.Errorf("document key %q escapes the upload root", key)
		}
	}

	resolved, err := filepath.Abs(filepath.Join(v.rootAbs, filepath.FromSlash(filepath.Clean(normalized))))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	if !isWithinRoot(v.rootAbs, resolved) || resolved == v.rootAbs {
		return "", fmt.Errorf("document key %q resolves outside the upload root", key)
	}

	return resolved, nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	if candidateAbs == rootAbs {
		return true
	}

	rootWithSeparator := rootAbs + string(filepath.Separator)
	return strings.HasPrefix(candidateAbs, rootWithSeparator)
}
