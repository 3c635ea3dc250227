package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kindred-systems/repotool/internal/errors"
)

// Descriptor is the parsed form of a component.json file. Keys the tool does
// not interpret are kept verbatim in Extra so a load/save round trip never
// drops metadata owned by other tooling.
type Descriptor struct {
	Repo       string
	Type       string
	Tier       string
	File       string
	Components []ComponentRef
	Extra      map[string]json.RawMessage

	// Path is the absolute location the descriptor was loaded from. Empty
	// for descriptors that only exist inline.
	Path string

	// hasRepo distinguishes a repo key holding an empty string from a
	// missing key, so validation can name the right reason.
	hasRepo bool
}

// DefaultFilename is the descriptor filename assumed when a component
// reference points at a directory.
const DefaultFilename = "component.json"

// ComponentRef is a single entry of a descriptor's components list: either a
// path to a nested descriptor file or the nested descriptor itself.
type ComponentRef struct {
	Ref    string
	Inline *Descriptor
}

// IsPath reports whether the reference still points at a file instead of
// holding the resolved descriptor.
func (r *ComponentRef) IsPath() bool {
	return r.Inline == nil
}

func (r *ComponentRef) UnmarshalJSON(data []byte) error {
	var ref string
	if err := json.Unmarshal(data, &ref); err == nil {
		r.Ref = ref
		return nil
	}

	var inline Descriptor
	if err := json.Unmarshal(data, &inline); err != nil {
		return fmt.Errorf("component reference must be either a path or an object: %w", err)
	}
	r.Inline = &inline
	return nil
}

func (r ComponentRef) MarshalJSON() ([]byte, error) {
	if r.Inline != nil {
		return json.Marshal(r.Inline)
	}
	return json.Marshal(r.Ref)
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	take := func(key string, dst interface{}) error {
		raw, ok := fields[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("invalid %s field: %w", key, err)
		}
		delete(fields, key)
		return nil
	}

	if _, ok := fields["repo"]; ok {
		d.hasRepo = true
	}
	if err := take("repo", &d.Repo); err != nil {
		return err
	}
	if d.Repo == "" {
		// Legacy descriptors used "repository" for the same field.
		if _, ok := fields["repository"]; ok {
			d.hasRepo = true
			if err := take("repository", &d.Repo); err != nil {
				return err
			}
		}
	}
	if err := take("type", &d.Type); err != nil {
		return err
	}
	if err := take("tier", &d.Tier); err != nil {
		return err
	}
	if err := take("__file", &d.File); err != nil {
		return err
	}
	if raw, ok := fields["components"]; ok {
		if err := json.Unmarshal(raw, &d.Components); err != nil {
			return fmt.Errorf("invalid components field: %w", err)
		}
		delete(fields, "components")
	}

	if len(fields) > 0 {
		d.Extra = fields
	}
	return nil
}

// MarshalJSON writes interpreted fields first, pass-through fields in sorted
// order, and components last, so output is deterministic for a given tree.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	writeField := func(key string, value interface{}) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		name, _ := json.Marshal(key)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}

	if d.Repo != "" {
		if err := writeField("repo", d.Repo); err != nil {
			return nil, err
		}
	}
	if d.Type != "" {
		if err := writeField("type", d.Type); err != nil {
			return nil, err
		}
	}
	if d.Tier != "" {
		if err := writeField("tier", d.Tier); err != nil {
			return nil, err
		}
	}
	if d.File != "" {
		if err := writeField("__file", d.File); err != nil {
			return nil, err
		}
	}

	extraKeys := make([]string, 0, len(d.Extra))
	for key := range d.Extra {
		extraKeys = append(extraKeys, key)
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		if err := writeField(key, d.Extra[key]); err != nil {
			return nil, err
		}
	}

	if d.Components != nil {
		if err := writeField("components", d.Components); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Load reads and parses the descriptor at path. Unreadable or malformed
// files produce a PARSE_ERROR.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, fmt.Sprintf("could not read descriptor %s", path))
	}

	var descriptor Descriptor
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, fmt.Sprintf("could not parse descriptor %s", path))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	descriptor.Path = absPath
	return &descriptor, nil
}

// Save writes the descriptor to path as indented JSON.
func Save(path string, descriptor *Descriptor) error {
	data, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal descriptor: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write descriptor %s: %w", path, err)
	}
	return nil
}

// Dir returns the directory the descriptor was loaded from, against which
// relative component references resolve.
func (d *Descriptor) Dir() string {
	return filepath.Dir(d.Path)
}

// Name returns the component name, which is the directory holding the
// descriptor file.
func (d *Descriptor) Name() string {
	return filepath.Base(d.Dir())
}
