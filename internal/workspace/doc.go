// Package workspace discovers the member packages of a workspace, keeps
// them in a Registry backed by a dependency graph, and emits them in
// dependency order.
//
// Discovery is one complete scan; nothing is emitted until every manifest
// has been read, because an order cannot be computed from a partial graph.
package workspace
