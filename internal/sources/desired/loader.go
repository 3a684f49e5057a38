package desired

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"
)

// Loader reads, renders, decodes and validates the desired hosts file.
//
// The file is a Go template first: sprig functions are available, so
// secrets and per-environment values can come from the environment:
//
//	macros:
//	  "{$DB_PASSWORD}": {{ env "DB_PASSWORD" | quote }}
type Loader struct {
	filePath  string
	validator *Validator
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath:  filePath,
		validator: NewValidator(),
	}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and validates the desired hosts file.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read desired hosts file: %w", err)
	}
	return l.parse(data)
}

func (l *Loader) parse(data []byte) (File, error) {
	rendered, err := render(filepath.Base(l.filePath), data)
	if err != nil {
		return File{}, err
	}

	var file File
	dec := yaml.NewDecoder(bytes.NewReader(rendered))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, errors.New("desired hosts file is empty")
		}
		return File{}, fmt.Errorf("failed to parse desired hosts yaml: %w", err)
	}

	if err := l.validator.Validate(file); err != nil {
		return File{}, err
	}
	return file, nil
}

// render executes data as a text/template with the sprig function map.
// Missing map keys are errors rather than "<no value>".
func render(name string, data []byte) ([]byte, error) {
	tpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse desired hosts template: %w", err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, nil); err != nil {
		return nil, fmt.Errorf("failed to render desired hosts template: %w", err)
	}
	return buf.Bytes(), nil
}
