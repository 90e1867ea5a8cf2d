package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

// FileName is the manifest file every member package carries.
const FileName = "package.json"

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Descriptor is a parsed package.json.
type Descriptor struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	Scripts              map[string]string `json:"scripts,omitempty"`

	// workspace root markers; the field name drifted between tool versions.
	isWorkspace bool
	workspace   bool

	// fields holds every top-level field in file order for re-encoding.
	fields []field
}

type field struct {
	key   string
	value []byte
}

// Parse decodes package.json content. The name field is required.
func Parse(data []byte) (*Descriptor, error) {
	d := &Descriptor{}
	if err := codec.Unmarshal(data, d); err != nil {
		return nil, errors.Wrap(err, "invalid package descriptor")
	}
	if d.Name == "" {
		return nil, errors.New("invalid package descriptor: missing 'name'")
	}

	iter := jsoniter.ParseBytes(codec, data)
	iter.ReadMapCB(func(iter *jsoniter.Iterator, key string) bool {
		raw := bytes.Clone(iter.SkipAndReturnBytes())
		d.fields = append(d.fields, field{key: key, value: raw})
		switch key {
		case "isWorkspace":
			d.isWorkspace = isTrue(raw)
		case "workspace":
			d.workspace = isTrue(raw)
		}
		return true
	})
	if iter.Error != nil {
		return nil, errors.Wrap(iter.Error, "invalid package descriptor")
	}

	return d, nil
}

// ReadFile reads and parses the descriptor at path.
func ReadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	desc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return desc, nil
}

func isTrue(raw []byte) bool {
	return string(bytes.TrimSpace(raw)) == "true"
}

// IsWorkspaceRoot reports whether the descriptor marks the workspace root
// rather than a member package.
func (d *Descriptor) IsWorkspaceRoot() bool {
	return d.isWorkspace || d.workspace
}

// HasDependency reports whether name appears in dependencies or
// devDependencies.
func (d *Descriptor) HasDependency(name string) bool {
	if _, ok := d.Dependencies[name]; ok {
		return true
	}
	_, ok := d.DevDependencies[name]
	return ok
}

// DependencyNames returns the sorted union of the names in the given
// dependency maps.
func DependencyNames(sets ...map[string]string) []string {
	names := lo.Uniq(lo.FlatMap(sets, func(set map[string]string, _ int) []string {
		return lo.Keys(set)
	}))
	sort.Strings(names)
	return names
}

// SetVersion changes the version field, both typed and in the raw fields.
func (d *Descriptor) SetVersion(version string) {
	d.Version = version
	encoded, _ := codec.Marshal(version)
	for i := range d.fields {
		if d.fields[i].key == "version" {
			d.fields[i].value = encoded
			return
		}
	}
	d.fields = append(d.fields, field{key: "version", value: encoded})
}

// Encode writes the descriptor back out with its original field order,
// indented with four spaces and terminated by a newline.
func (d *Descriptor) Encode() ([]byte, error) {
	var compact bytes.Buffer
	stream := codec.BorrowStream(&compact)
	defer codec.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, f := range d.fields {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(f.key)
		stream.WriteRaw(string(f.value))
	}
	stream.WriteObjectEnd()
	if err := stream.Flush(); err != nil {
		return nil, errors.Wrap(err, "encoding package descriptor")
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "    "); err != nil {
		return nil, errors.Wrap(err, "encoding package descriptor")
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
