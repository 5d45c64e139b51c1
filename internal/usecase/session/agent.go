package session

import "context"

// Agent abstracts the remote session automation (a real browser in
// production). Selectors are XPath expressions; the agent resolves them per
// action, so there are no element handles to go stale.
type Agent interface {
	// Open navigates to the session URL
	Open(ctx context.Context, url string) error

	// WaitVisible blocks until an element matching the selector is
	// visible or ctx expires
	WaitVisible(ctx context.Context, selector string) error

	// SendKeys types text into the element matching the selector
	SendKeys(ctx context.Context, selector, text string) error

	// Click activates the element matching the selector
	Click(ctx context.Context, selector string) error

	// ElementExists reports whether any element currently matches the
	// selector, without waiting
	ElementExists(ctx context.Context, selector string) (bool, error)

	// Screenshot captures the current viewport as PNG bytes
	Screenshot(ctx context.Context) ([]byte, error)

	// IsReachable reports whether the remote agent still responds
	IsReachable(ctx context.Context) bool

	// Close releases the agent. Must be safe to call more than once.
	Close() error
}

// Meeting UI selectors. Label matching uses contains(), not equality,
// because the vendor appends dynamic content to control labels.
const (
	nameFieldSelector = `//input[@placeholder='Your name']`

	muteMicSelector    = `//button[@aria-label='Turn off microphone']`
	muteCameraSelector = `//button[@aria-label='Turn off camera']`

	dismissSelector = `//button[contains(.,'Dismiss')]`

	joinNowSelector   = `//button[.//span[contains(text(),'Join now')]]`
	askToJoinSelector = `//button[.//span[contains(text(),'Ask to join')]]`

	endOfCallSelector = `//div[contains(text(),'Call ended') or contains(text(),'You left the call')]`
)
