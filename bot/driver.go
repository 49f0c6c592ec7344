package bot

import (
	"context"
)

// Driver is the narrow set of browser primitives the workflows need.
// Keeping the surface this small means the workflow state machine never
// touches the automation library directly and can run against a fake.
// Selectors are CSS, or XPath when they start with "//". Waiting
// operations are bounded by the implementation's wait timeout.
type Driver interface {
	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until the selector matches a visible element or
	// the wait timeout elapses.
	WaitVisible(ctx context.Context, selector string) error

	// Click scrolls the first match into view and clicks it.
	Click(ctx context.Context, selector string) error

	// SendKeys types text into the first match.
	SendKeys(ctx context.Context, selector, text string) error

	// ElementIDs returns the id attributes of all matches in document
	// order. No matches is not an error.
	ElementIDs(ctx context.Context, selector string) ([]string, error)

	// AttributeValue returns the named attribute of the first match. The
	// boolean reports whether the attribute is present.
	AttributeValue(ctx context.Context, selector, name string) (string, bool, error)

	// Exists reports whether the selector matches within a short bounded
	// wait. Absence is not an error.
	Exists(ctx context.Context, selector string) (bool, error)
}

// Launcher starts one browser process. The returned stop function
// terminates it; Stop on the owning Session guarantees it runs.
type Launcher interface {
	Launch(ctx context.Context) (Driver, func() error, error)
}
