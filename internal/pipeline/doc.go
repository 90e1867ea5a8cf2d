// Package pipeline turns per-package functions into stream stages and
// chains them together.
//
// Items travel through a chain of stages over unbuffered channels. Each
// stage handles one item at a time, in arrival order, so a stage never
// sees a package before it has finished with every package ahead of it in
// the ordered stream. A stage checks that the item is a buffered
// package.json, parses it, records it in the stage's package map, and then
// calls its PackageFunc. Recoverable failures (*PluginError with Continue
// set) are logged and the item is forwarded; anything else stops the whole
// chain.
package pipeline
