package pipeline

import (
	"strings"

	"dario.cat/mergo"
	"github.com/cockroachdb/errors"
)

// ExclusiveMarker prefixes a package name to restrict processing to that
// package alone.
const ExclusiveMarker = "!"

// Options is the workspace-wide configuration every stage receives. It is
// built once per run and never mutated by stages.
type Options struct {
	// Package focuses the run on one package and its dependencies.
	Package string `mapstructure:"package"`
	// OnlyNamedPackage processes Package alone; the other packages of the
	// stream pass through untouched.
	OnlyNamedPackage bool `mapstructure:"only_named_package"`
	Verbose          bool `mapstructure:"verbose"`
	// VersionBump is an increment (major, minor, patch, pre*) or an
	// explicit version applied at publish time. Empty publishes the
	// version as is.
	VersionBump          string `mapstructure:"version_bump"`
	DisableExternalLinks bool   `mapstructure:"disable_external_links"`
	// DropFailed removes packages that failed recoverably from the stream
	// instead of forwarding them.
	DropFailed bool `mapstructure:"drop_failed"`
	// Cwd is the workspace root.
	Cwd string `mapstructure:"cwd"`
}

// DefaultOptions returns the built-in defaults: the current directory is
// the workspace root and no version bump is applied.
func DefaultOptions() Options {
	return Options{Cwd: "."}
}

// MergeOptions layers options left to right: defaults, then caller options,
// then command line overrides. A zero field never overrides a set one.
func MergeOptions(layers ...Options) (Options, error) {
	var merged Options
	for _, layer := range layers {
		if err := mergo.Merge(&merged, layer, mergo.WithOverride); err != nil {
			return Options{}, errors.Wrap(err, "merging options")
		}
	}
	return merged, nil
}

// ParsePackageFlag splits a "-p" value into the package name and whether
// the exclusive marker was present.
func ParsePackageFlag(value string) (name string, exclusive bool) {
	if strings.HasPrefix(value, ExclusiveMarker) {
		return strings.TrimPrefix(value, ExclusiveMarker), true
	}
	return value, false
}
