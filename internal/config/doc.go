// Package config loads workgrid's settings: the optional workgrid.yaml at
// the workspace root, WORKGRID_* environment variables, and bound command
// line flags, in increasing order of precedence.
//
// Per-stage sections live under `stages` and are kept as raw maps; each
// stage decodes its own section so defaults stay next to the stage.
package config
