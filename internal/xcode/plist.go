package xcode

import (
	"fmt"
	"os"
	"path/filepath"

	"howett.net/plist"

	"github.com/moasq/appcenter-postbuild/internal/editors"
	"github.com/moasq/appcenter-postbuild/internal/patch"
)

// Plist is an editable property list document.
type Plist struct {
	path   string
	format int
	root   *Dict
}

// Dict is a property list dictionary. Nested containers are held as
// *Dict and *Array so they can be edited in place.
type Dict struct {
	m map[string]any
}

// Array is a property list array.
type Array struct {
	items []any
}

// OpenPlist reads the property list at path.
func OpenPlist(path string) (*Plist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, patch.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var raw any
	format, err := plist.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	root, ok := wrap(raw).(*Dict)
	if !ok {
		return nil, fmt.Errorf("%s: root is not a dictionary", path)
	}
	return &Plist{path: path, format: format, root: root}, nil
}

// NewPlist returns an empty XML property list that will be written to path.
func NewPlist(path string) *Plist {
	return &Plist{path: path, format: plist.XMLFormat, root: newDict()}
}

// OpenOrCreatePlist opens path, or starts an empty document when it does not exist.
func OpenOrCreatePlist(path string) (*Plist, error) {
	p, err := OpenPlist(path)
	if err == nil {
		return p, nil
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return NewPlist(path), nil
	}
	return nil, err
}

// Root implements editors.PlistDocument.
func (p *Plist) Root() editors.PlistDict { return p.root }

// Dict returns the concrete root dictionary.
func (p *Plist) Dict() *Dict { return p.root }

// Save writes the document in its original format, keeping the
// permissions of an existing file.
func (p *Plist) Save() error {
	out, err := plist.MarshalIndent(unwrap(p.root), p.format, "\t")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", p.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return patch.WriteFileAtomic(p.path, out)
}

func newDict() *Dict { return &Dict{m: make(map[string]any)} }

// CreateArray sets key to a new empty array, replacing any previous value.
func (d *Dict) CreateArray(key string) editors.PlistArray {
	a := &Array{}
	d.m[key] = a
	return a
}

// CreateDict sets key to a new empty dictionary, replacing any previous value.
func (d *Dict) CreateDict(key string) editors.PlistDict {
	c := newDict()
	d.m[key] = c
	return c
}

// SetString sets key to value.
func (d *Dict) SetString(key, value string) { d.m[key] = value }

// SetBool sets key to value.
func (d *Dict) SetBool(key string, value bool) { d.m[key] = value }

// GetString returns the string stored under key.
func (d *Dict) GetString(key string) (string, bool) {
	s, ok := d.m[key].(string)
	return s, ok
}

// Array returns the array stored under key.
func (d *Dict) Array(key string) (*Array, bool) {
	a, ok := d.m[key].(*Array)
	return a, ok
}

// Dict returns the dictionary stored under key.
func (d *Dict) Dict(key string) (*Dict, bool) {
	c, ok := d.m[key].(*Dict)
	return c, ok
}

// AddDict appends a new empty dictionary.
func (a *Array) AddDict() editors.PlistDict {
	d := newDict()
	a.items = append(a.items, d)
	return d
}

// AddString appends value.
func (a *Array) AddString(value string) { a.items = append(a.items, value) }

// Len returns the number of items.
func (a *Array) Len() int { return len(a.items) }

// DictAt returns the dictionary at index i.
func (a *Array) DictAt(i int) (*Dict, bool) {
	if i < 0 || i >= len(a.items) {
		return nil, false
	}
	d, ok := a.items[i].(*Dict)
	return d, ok
}

// ContainsString reports whether value is one of the array's strings.
func (a *Array) ContainsString(value string) bool {
	for _, it := range a.items {
		if s, ok := it.(string); ok && s == value {
			return true
		}
	}
	return false
}

// wrap converts decoded maps and slices into editable nodes.
func wrap(v any) any {
	switch t := v.(type) {
	case map[string]any:
		d := newDict()
		for k, val := range t {
			d.m[k] = wrap(val)
		}
		return d
	case []any:
		a := &Array{items: make([]any, len(t))}
		for i, val := range t {
			a.items[i] = wrap(val)
		}
		return a
	default:
		return v
	}
}

func unwrap(v any) any {
	switch t := v.(type) {
	case *Dict:
		m := make(map[string]any, len(t.m))
		for k, val := range t.m {
			m[k] = unwrap(val)
		}
		return m
	case *Array:
		items := make([]any, len(t.items))
		for i, val := range t.items {
			items[i] = unwrap(val)
		}
		return items
	default:
		return v
	}
}
