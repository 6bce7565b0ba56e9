package browser

import "fmt"

// NoElementError is returned when a selector matched nothing.
type NoElementError struct {
	Selector string
}

func (e *NoElementError) Error() string {
	return fmt.Sprintf("no element found for selector %q", e.Selector)
}

// NavigationError is returned when the browser rejected a navigation before
// it even started, e.g. for a malformed URL.
type NavigationError struct {
	Text string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed: %s", e.Text)
}
