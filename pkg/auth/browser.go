package auth

import (
	"fmt"
	"io"

	"github.com/skratchdot/open-golang/open"
)

// BrowserOpener defines the interface for opening URLs in a browser.
type BrowserOpener interface {
	Open(url string) error
}

// SystemBrowserOpener opens URLs using the system default browser.
type SystemBrowserOpener struct{}

// Open opens a URL in the system default browser.
func (s *SystemBrowserOpener) Open(url string) error {
	return open.Run(url)
}

// BrowserOpenerFunc adapts a function to BrowserOpener.
type BrowserOpenerFunc func(url string) error

// Open calls f(url).
func (f BrowserOpenerFunc) Open(url string) error {
	return f(url)
}

// OpenBrowserWithFallback tries to open the browser and prints a fallback message on failure.
func OpenBrowserWithFallback(opener BrowserOpener, url string, writer io.Writer) error {
	if opener == nil {
		opener = &SystemBrowserOpener{}
	}

	_, _ = fmt.Fprintf(writer, "\nOpening browser to:\n%s\n\n", url)

	if err := opener.Open(url); err != nil {
		_, _ = fmt.Fprintf(writer, "Failed to open browser automatically.\n")
		_, _ = fmt.Fprintf(writer, "Please visit the URL above manually.\n")
		return err
	}

	return nil
}
