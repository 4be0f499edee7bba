package atgpedi

// State is where a Session stands in its lifecycle.
//
//	Unauthenticated -> Authenticating -> Authenticated -> ListingLoaded -> (Filtered) -> Extracted
//
// AuthFailed and Failed are terminal, Closed is reached from any state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateAuthFailed
	StateListingLoaded
	StateFiltered
	StateExtracted
	StateFailed
	StateClosed
)

var stateNames = map[State]string{
	StateUnauthenticated: "unauthenticated",
	StateAuthenticating:  "authenticating",
	StateAuthenticated:   "authenticated",
	StateAuthFailed:      "auth_failed",
	StateListingLoaded:   "listing_loaded",
	StateFiltered:        "filtered",
	StateExtracted:       "extracted",
	StateFailed:          "failed",
	StateClosed:          "closed",
}

func (s State) String() string {
	name, ok := stateNames[s]
	if !ok {
		return "unknown"
	}
	return name
}

func (s State) terminal() bool {
	return s == StateAuthFailed || s == StateFailed || s == StateClosed
}

// hasListing reports whether the state sits at or after ListingLoaded.
func (s State) hasListing() bool {
	return s == StateListingLoaded || s == StateFiltered || s == StateExtracted
}
