package atgpedi

import "errors"

var (
	// ErrAuthentication means the portal did not accept the credentials or
	// the login form could not be driven.
	ErrAuthentication = errors.New("authentication failed")
	// ErrNavigation means a page could not be reached or did not render the
	// order listing in time.
	ErrNavigation = errors.New("navigation failed")
	// ErrResource means the session itself could not be acquired or released.
	ErrResource = errors.New("session resource error")
)
