// Package types holds the shared data model: attendance events and
// their reconciliation identity, backend status and metrics bodies,
// captured process log entries, and device scoping for the live feed.
package types
