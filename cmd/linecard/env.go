package main

import (
	"io"
	"os"
	"time"

	linecard "github.com/alnah/go-linecard"
	"github.com/alnah/go-linecard/internal/assets"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, the process environment, and templates.
type Environment struct {
	Now       func() time.Time
	Stdout    io.Writer
	Stderr    io.Writer
	LookupEnv func(string) (string, bool)
	Environ   func() []string
	Templates *assets.EmbeddedLoader

	// Options are appended to every Generator the CLI builds.
	Options []linecard.Option
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:       time.Now,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		LookupEnv: os.LookupEnv,
		Environ:   os.Environ,
		Templates: assets.NewEmbeddedLoader(),
	}
}

// getenv returns the value of key, or "" when unset.
func (e *Environment) getenv(key string) string {
	v, _ := e.LookupEnv(key)
	return v
}
