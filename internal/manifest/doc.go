// Package manifest reads and rewrites package.json descriptors. It knows
// the handful of fields workgrid cares about (name, version, the four
// dependency maps, scripts and the workspace-root marker) and keeps every
// other field untouched so a descriptor can be written back after a
// version bump without reshuffling the file.
package manifest
