package assets

import (
	"embed"
	"fmt"
)

//go:embed templates/*
var templates embed.FS

// EmbeddedLoader loads HTML templates compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadTemplate loads an HTML template by name, without the .html extension.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	if name == "" || !isPlainName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	content, err := templates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return string(content), nil
}

// isPlainName rejects separators and dots so names cannot leave templates/.
func isPlainName(name string) bool {
	for _, r := range name {
		if r == '/' || r == '\\' || r == '.' {
			return false
		}
	}
	return true
}
