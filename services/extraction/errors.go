package extraction

import (
	"context"
	"errors"
	"rapthor-backend/lib/scrapers/atgpedi"
	"strings"
)

// Kind is the category of a failed run.
type Kind int

const (
	KindNone Kind = iota
	KindAuthentication
	KindNavigation
	KindResource
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuthentication:
		return atgpedi.ErrAuthentication.Error()
	case KindNavigation:
		return atgpedi.ErrNavigation.Error()
	case KindResource:
		return atgpedi.ErrResource.Error()
	default:
		return "internal error"
	}
}

// retryable kinds are worth another attempt with a fresh session.
func (k Kind) retryable() bool {
	return k == KindNavigation || k == KindResource
}

// Classify maps an error of a run to its kind. A deadline that elapsed
// while the portal was loading counts as a navigation failure.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, atgpedi.ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, atgpedi.ErrNavigation):
		return KindNavigation
	case errors.Is(err, atgpedi.ErrResource):
		return KindResource
	case errors.Is(err, context.DeadlineExceeded):
		return KindNavigation
	default:
		return KindInternal
	}
}

// message renders err for the caller, always led by its kind.
func message(err error) string {
	kind := Classify(err)
	text := err.Error()
	if strings.HasPrefix(text, kind.String()) {
		return text
	}
	return kind.String() + ": " + text
}
