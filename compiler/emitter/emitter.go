// Package emitter renders compiled programs into artifacts outside the
// engine: today a standalone Go program that replays the same calls and
// checks with net/http.
package emitter

import (
	"os"
	"path/filepath"

	"github.com/strogmv/apiblocks/templates"
)

type Emitter struct {
	TemplatesDir string // used when a template is not embedded
	Version      string
}

func New(templatesDir, version string) *Emitter {
	if templatesDir == "" {
		templatesDir = "templates"
	}
	return &Emitter{TemplatesDir: templatesDir, Version: version}
}

// ReadTemplate reads a template file from the embedded FS or, failing that,
// from TemplatesDir.
func (e *Emitter) ReadTemplate(name string) ([]byte, error) {
	content, err := templates.FS.ReadFile(name)
	if err == nil {
		return content, nil
	}
	return os.ReadFile(filepath.Join(e.TemplatesDir, name))
}
