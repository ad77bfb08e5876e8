// Package ws broadcasts table-change events to dashboard clients over
// WebSocket, so open pages can refetch after another session writes.
package ws
