// Package depgraph is the ordering layer of workgrid. It holds a directed
// graph over package names, where an edge from A to B means "A depends on
// B", and answers two questions about it: in which order can every package
// be processed, and which packages must be processed before a given one.
//
// Orders are computed on demand and never cached. Cycles are not rejected
// when edges are inserted; they surface as a *CycleError the first time an
// order that crosses them is requested.
package depgraph
