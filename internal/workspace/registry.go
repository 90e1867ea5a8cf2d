package workspace

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/depgraph"
	"github.com/specialistvlad/workgrid/internal/manifest"
	"github.com/specialistvlad/workgrid/internal/pipeline"
)

var (
	// ErrWorkspaceRoot rejects a workspace-root descriptor added as a member.
	ErrWorkspaceRoot = errors.New("descriptor marks the workspace root")
	// ErrDuplicatePackage rejects a second package with an existing name.
	ErrDuplicatePackage = errors.New("duplicate package name")
	// ErrPackageNotFound is returned when a named package is not a member.
	ErrPackageNotFound = errors.New("workspace package not found")
)

// PeerPolicy decides whether peer dependencies order packages.
type PeerPolicy string

const (
	// PeersOrder treats peer dependencies like regular ones for ordering.
	PeersOrder PeerPolicy = "order"
	// PeersLinkOnly ignores peer dependencies for ordering; install still
	// links them.
	PeersLinkOnly PeerPolicy = "link-only"
)

// Policy configures how descriptors enter the registry.
type Policy struct {
	PeerDependencies PeerPolicy `mapstructure:"peer_dependencies"`
	// IgnoreWorkspaceRoot skips workspace-root descriptors silently instead
	// of rejecting them.
	IgnoreWorkspaceRoot bool `mapstructure:"ignore_workspace_root"`
}

// Record is a member package: its descriptor, where it lives, and the item
// it was read from.
type Record struct {
	Name       string
	Descriptor *manifest.Descriptor
	Item       *pipeline.Item
}

// Dir returns the package directory.
func (r *Record) Dir() string {
	return r.Item.Dir()
}

// Registry collects the member packages of one discovery pass.
type Registry struct {
	graph   *depgraph.Graph
	policy  Policy
	records map[string]*Record
}

// NewRegistry returns an empty registry that records packages into graph.
func NewRegistry(graph *depgraph.Graph, policy Policy) *Registry {
	if policy.PeerDependencies == "" {
		policy.PeerDependencies = PeersOrder
	}
	return &Registry{
		graph:   graph,
		policy:  policy,
		records: make(map[string]*Record),
	}
}

// AddPackage records a member package and adds its graph node. A
// workspace-root descriptor is never recorded.
func (r *Registry) AddPackage(desc *manifest.Descriptor, item *pipeline.Item) error {
	if desc.IsWorkspaceRoot() {
		if r.policy.IgnoreWorkspaceRoot {
			return nil
		}
		return errors.Wrapf(ErrWorkspaceRoot, "%q at %s", desc.Name, item.Path)
	}
	if existing, ok := r.records[desc.Name]; ok {
		return errors.Wrapf(ErrDuplicatePackage, "%q at %s and %s", desc.Name, existing.Item.Path, item.Path)
	}

	r.records[desc.Name] = &Record{Name: desc.Name, Descriptor: desc, Item: item}
	r.graph.AddNode(desc.Name)
	return nil
}

// AddPackageDependency records that desc depends on dependencyName.
func (r *Registry) AddPackageDependency(desc *manifest.Descriptor, dependencyName string) {
	r.graph.AddDependency(desc.Name, dependencyName)
}

// AddPackageDependencies adds an edge for every name in the ordering set
// of desc: dependencies, devDependencies and optionalDependencies, plus
// peerDependencies under PeersOrder.
func (r *Registry) AddPackageDependencies(desc *manifest.Descriptor) {
	for _, name := range r.dependencyNames(desc) {
		r.AddPackageDependency(desc, name)
	}
}

// dependencyNames is the one place the peer policy is applied.
func (r *Registry) dependencyNames(desc *manifest.Descriptor) []string {
	sets := []map[string]string{desc.Dependencies, desc.DevDependencies, desc.OptionalDependencies}
	if r.policy.PeerDependencies == PeersOrder {
		sets = append(sets, desc.PeerDependencies)
	}
	return manifest.DependencyNames(sets...)
}

// Ingest parses discovered items and records each package with its edges,
// in item order.
func (r *Registry) Ingest(ctx context.Context, items []*pipeline.Item) error {
	logger := ctxlog.FromContext(ctx)

	for _, item := range items {
		desc, err := manifest.Parse(item.Contents)
		if err != nil {
			return errors.Wrapf(err, "reading %s", item.Path)
		}
		if err := r.AddPackage(desc, item); err != nil {
			return err
		}
		if desc.IsWorkspaceRoot() {
			logger.Debug("Skipping workspace root descriptor.", "package", desc.Name, "path", item.Path)
			continue
		}
		r.AddPackageDependencies(desc)
	}

	logger.Debug("Registry populated.", "packages", len(r.records), "nodes", r.graph.Len())
	return nil
}

// Lookup returns the record for a member package.
func (r *Registry) Lookup(name string) (*Record, bool) {
	rec, ok := r.records[name]
	return rec, ok
}

// Len returns the number of member packages.
func (r *Registry) Len() int {
	return len(r.records)
}

// Load discovers the packages under root and returns a populated registry.
func Load(ctx context.Context, root string, discover DiscoverOptions, policy Policy) (*Registry, error) {
	items, err := Discover(ctx, root, discover)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry(depgraph.New(), policy)
	if err := reg.Ingest(ctx, items); err != nil {
		return nil, err
	}
	return reg, nil
}
