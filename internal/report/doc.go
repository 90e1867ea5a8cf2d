// Package report publishes pipeline progress. Summary counts events for the
// closing log line, and Socket streams every event to a socket.io server
// so a dashboard can follow a long workspace build.
package report
