// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"maps"

	"github.com/invowk/modcat/pkg/modmeta"
)

const (
	// SourcePersisted marks attributes held in a stored record.
	SourcePersisted SourceKind = "persisted"
	// SourceFileBacked marks attributes read from on-disk metadata.
	SourceFileBacked SourceKind = "file"
)

// ErrNoMetadataReader is returned by a FileBacked source that has no reader.
var ErrNoMetadataReader = errors.New("file-backed module has no metadata reader")

type (
	// SourceKind tags the variant of an AttributeSource.
	SourceKind string

	// AttributeSource is the closed set of places a module reads attributes from:
	// Persisted or FileBacked.
	AttributeSource interface {
		// Kind reports the variant.
		Kind() SourceKind
		// Lookup returns the raw value at key and whether it was present.
		Lookup(key string) (any, bool, error)
		// Values returns a copy of every attribute.
		Values() (map[string]any, error)

		sealed()
	}

	// MetadataReader loads the metadata document of a module directory.
	// *modmeta.Reader implements it.
	MetadataReader interface {
		Read(dir string) (*modmeta.Document, error)
	}

	// Persisted reads attributes from an in-memory map.
	Persisted struct {
		Attributes map[string]any
	}

	// FileBacked reads attributes from the metadata document in Dir.
	FileBacked struct {
		Dir    string
		Reader MetadataReader
	}
)

// Kind implements AttributeSource.
func (Persisted) Kind() SourceKind { return SourcePersisted }

// Lookup implements AttributeSource.
func (p Persisted) Lookup(key string) (any, bool, error) {
	v, ok := p.Attributes[key]
	return v, ok, nil
}

// Values implements AttributeSource.
func (p Persisted) Values() (map[string]any, error) {
	if p.Attributes == nil {
		return map[string]any{}, nil
	}
	return maps.Clone(p.Attributes), nil
}

func (Persisted) sealed() {}

// Kind implements AttributeSource.
func (FileBacked) Kind() SourceKind { return SourceFileBacked }

// Lookup implements AttributeSource.
func (f FileBacked) Lookup(key string) (any, bool, error) {
	doc, err := f.document()
	if err != nil {
		return nil, false, err
	}
	v, ok := doc.Get(key)
	return v, ok, nil
}

// Values implements AttributeSource.
func (f FileBacked) Values() (map[string]any, error) {
	doc, err := f.document()
	if err != nil {
		return nil, err
	}
	return doc.Values(), nil
}

func (FileBacked) sealed() {}

func (f FileBacked) document() (*modmeta.Document, error) {
	if f.Reader == nil {
		return nil, ErrNoMetadataReader
	}
	return f.Reader.Read(f.Dir)
}
