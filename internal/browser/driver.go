// Package browser drives a single headless Chrome instance per session:
// launch with a fixed fingerprint, bounded polling waits for DOM
// conditions, and guaranteed teardown.
package browser

import (
	"context"
	"errors"
)

var (
	// ErrStaleElement reports a node that the page replaced or removed
	// between lookup and read. Waits treat it as "not yet satisfied".
	ErrStaleElement = errors.New("stale element reference")

	// ErrElementNotFound reports an action against a selector that matched nothing.
	ErrElementNotFound = errors.New("element not found")
)

// Driver is the page-level contract a browser backend must satisfy.
// Queries (Exists, Attribute) must not block waiting for the element;
// polling is done by Session.WaitFor.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	Exists(ctx context.Context, selector string) (bool, error)
	Attribute(ctx context.Context, selector, name string) (string, bool, error)
	SetValue(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Launcher starts a browser process and returns a driver bound to it.
type Launcher interface {
	Launch(ctx context.Context, cfg Config) (Driver, error)
}
