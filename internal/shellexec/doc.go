// Package shellexec spawns the external tools workgrid drives (npm, tsc,
// node) and interprets shell snippets from hooks and package scripts.
// Every non-zero exit becomes a *ProcessError carrying the captured output.
package shellexec
