// Package app wires the workgrid engine together: logging, tracing, the
// stage registry, workspace discovery and the pipeline run.
package app
