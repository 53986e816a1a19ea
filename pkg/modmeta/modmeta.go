// SPDX-License-Identifier: MPL-2.0

package modmeta

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/invowk/modcat/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

const (
	// FormatJSON is module.json.
	FormatJSON Format = "json"
	// FormatCUE is module.cue.
	FormatCUE Format = "cue"
	// FormatTOML is module.toml.
	FormatTOML Format = "toml"

	// BaseName is the metadata file name without extension.
	BaseName = "module"
)

var (
	//go:embed module_schema.cue
	moduleSchema string

	// ErrMetadataNotFound is returned when a directory has no metadata document.
	ErrMetadataNotFound = errors.New("module metadata not found")

	// lookupOrder is the precedence of metadata formats within one directory.
	lookupOrder = []Format{FormatJSON, FormatCUE, FormatTOML}
)

type (
	// Format identifies a metadata file format.
	Format string

	// Document is a parsed, schema-validated metadata document.
	Document struct {
		path   string
		format Format
		values map[string]any
	}

	// Reader loads metadata documents and keeps each parsed document per directory.
	Reader struct {
		fs    afero.Fs
		mu    sync.Mutex
		cache map[string]*Document
	}
)

// FileName returns the metadata file name for the format (e.g. "module.json").
func (f Format) FileName() string {
	return BaseName + "." + string(f)
}

// NewDocument wraps already-decoded values. It is used for documents built in
// memory and by tests.
func NewDocument(path string, format Format, values map[string]any) *Document {
	if values == nil {
		values = map[string]any{}
	}
	return &Document{path: path, format: format, values: values}
}

// Path returns the file the document was read from.
func (d *Document) Path() string {
	return d.path
}

// Format returns the document format.
func (d *Document) Format() Format {
	return d.format
}

// Get returns the value stored at key. Dotted keys walk nested objects,
// so "aliases.Cart" reads the Cart entry of the aliases object.
func (d *Document) Get(key string) (any, bool) {
	if v, ok := d.values[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}

	var current any = d.values
	for part := range strings.SplitSeq(key, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Values returns a shallow copy of the top-level values.
func (d *Document) Values() map[string]any {
	return maps.Clone(d.values)
}

// NewReader creates a Reader over fs. A nil fs means the OS filesystem.
func NewReader(fs afero.Fs) *Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Reader{
		fs:    fs,
		cache: make(map[string]*Document),
	}
}

// Read returns the metadata document of the module directory dir.
// Returns ErrMetadataNotFound when the directory has no metadata file.
func (r *Reader) Read(dir string) (*Document, error) {
	key := filepath.Clean(dir)

	r.mu.Lock()
	defer r.mu.Unlock()

	if doc, ok := r.cache[key]; ok {
		return doc, nil
	}

	path, format, err := Locate(r.fs, key)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module metadata at %s: %w", path, err)
	}

	doc, err := Parse(data, format, path)
	if err != nil {
		return nil, err
	}

	r.cache[key] = doc
	return doc, nil
}

// Forget drops the parsed document of dir so the next Read reparses it.
func (r *Reader) Forget(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, filepath.Clean(dir))
}

// Locate finds the metadata file inside dir, honoring the format precedence.
func Locate(fs afero.Fs, dir string) (string, Format, error) {
	for _, format := range lookupOrder {
		path := filepath.Join(dir, format.FileName())
		info, err := fs.Stat(path)
		if err == nil && !info.IsDir() {
			return path, format, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", "", fmt.Errorf("failed to check module metadata at %s: %w", path, err)
		}
	}
	return "", "", fmt.Errorf("%w in %s", ErrMetadataNotFound, dir)
}

// Parse validates data against the #Module schema and decodes it.
// JSON is valid CUE and goes through the CUE compiler directly; TOML is
// converted to JSON first.
func Parse(data []byte, format Format, filename string) (*Document, error) {
	switch format {
	case FormatJSON, FormatCUE:
	case FormatTOML:
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		converted, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		data = converted
	default:
		return nil, fmt.Errorf("unsupported module metadata format %q", format)
	}

	values, err := cueutil.DecodeMap(moduleSchema, data, "#Module", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}

	return NewDocument(filename, format, values), nil
}
