package atgpedi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"rapthor-backend/lib/htmlutil"
	"rapthor-backend/lib/orders"
	"rapthor-backend/lib/textutil"
	"rapthor-backend/lib/timezone"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// minLabelSimilarity is the Jaro-Winkler similarity a link label needs to be
// taken for the listing link when no label contains it outright.
const minLabelSimilarity = 0.85

func (s *Session) dateInput(doc *goquery.Document) *goquery.Selection {
	param := s.opts.DateParam
	return doc.Find(fmt.Sprintf(`input[name="%s"], input[id="%s"]`, param, param)).First()
}

// discoverListing finds the listing link on the landing page by its label.
func (s *Session) discoverListing(ctx context.Context) (*url.URL, error) {
	anchors := htmlutil.GetAnchors(ctx, s.landing.URL, s.landing.Doc.Find("a"))

	label := s.opts.ListingLabel
	matchers := []string{textutil.NormalizeName(label)}
	names := make([]string, len(anchors))
	for i, a := range anchors {
		if textutil.MatchName(a.Name, matchers) {
			return url.Parse(a.Href)
		}
		names[i] = a.Name
	}

	closest := textutil.ClosestName(label, names, minLabelSimilarity)
	if closest < 0 {
		return nil, fmt.Errorf("no link labelled %q on the landing page", label)
	}
	return url.Parse(anchors[closest].Href)
}

// OpenListing loads the order listing. The page must render the listing
// table or at least its date filter.
func (s *Session) OpenListing(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:OpenListing")
	defer span.End()

	if s.state != StateAuthenticated && !s.state.hasListing() {
		err := fmt.Errorf("%w: cannot open the listing from state %s", ErrResource, s.state)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var target *url.URL
	var err error
	if s.opts.ListingPath != "" {
		target, err = s.resolve(s.opts.ListingPath)
	} else {
		target, err = s.discoverListing(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to locate the listing")
		return s.fail(ctx, StateFailed, "listing-link", fmt.Errorf("%w: %w", ErrNavigation, err))
	}
	span.SetAttributes(attribute.String("url", target.String()))

	listing, err := s.get(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch listing")
		return s.fail(ctx, StateFailed, "listing", fmt.Errorf("%w: listing: %w", ErrNavigation, err))
	}
	s.current = listing

	if !HasListing(listing.Doc) && s.dateInput(listing.Doc).Length() == 0 {
		span.SetStatus(codes.Error, "listing not rendered")
		return s.fail(ctx, StateFailed, "listing", fmt.Errorf("%w: %s does not render the order listing", ErrNavigation, listing.URL))
	}

	s.listingUrl = listing.URL
	s.state = StateListingLoaded
	return nil
}

// FilterStrategy is one way of asking the portal for the orders of a
// delivery date. `value` is empty to clear the filter.
type FilterStrategy interface {
	Name() string
	Apply(ctx context.Context, s *Session, value string) (*page, error)
}

// URLParamFilter reloads the listing with the date in its query string.
type URLParamFilter struct{}

func (URLParamFilter) Name() string {
	return "url_param"
}

func (URLParamFilter) Apply(ctx context.Context, s *Session, value string) (*page, error) {
	target := *s.listingUrl
	query := target.Query()
	query.Set(s.opts.DateParam, value)
	target.RawQuery = query.Encode()
	return s.get(ctx, &target)
}

// FormInputFilter fills the date input of the listing and submits its form.
type FormInputFilter struct{}

func (FormInputFilter) Name() string {
	return "form_input"
}

func (FormInputFilter) Apply(ctx context.Context, s *Session, value string) (*page, error) {
	input := s.dateInput(s.current.Doc)
	if input.Length() == 0 {
		return nil, fmt.Errorf("no %q input on the listing", s.opts.DateParam)
	}
	name := input.AttrOr("name", "")
	if name == "" {
		return nil, fmt.Errorf("the %q input has no name", s.opts.DateParam)
	}
	form := input.Closest("form")
	if form.Length() == 0 {
		return nil, fmt.Errorf("the %q input is not in a form", s.opts.DateParam)
	}

	sub, err := formSubmission(s.current, form)
	if err != nil {
		return nil, err
	}
	sub.Values.Set(name, value)
	return s.submit(ctx, sub)
}

var errNoListing = errors.New("the order listing was not rendered")

// ApplyDate filters the listing on a delivery date, nil clears the filter.
// Strategies are tried in order until one renders the listing table.
func (s *Session) ApplyDate(ctx context.Context, date *time.Time) error {
	ctx, span := tracer.Start(ctx, "client:ApplyDate")
	defer span.End()

	if !s.state.hasListing() {
		err := fmt.Errorf("%w: cannot filter from state %s", ErrResource, s.state)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	value := ""
	if date != nil {
		value = date.In(timezone.Location).Format(orders.DateLayout)
	}
	span.SetAttributes(attribute.String("date", value))

	var lastErr error
	for _, strategy := range s.opts.Filters {
		filtered, err := strategy.Apply(ctx, s, value)
		if err == nil && !HasListing(filtered.Doc) {
			err = errNoListing
		}
		if err != nil {
			slog.DebugContext(ctx, "date filter strategy failed", "strategy", strategy.Name(), "err", err)
			span.AddEvent(fmt.Sprintf("strategy %s failed: %s", strategy.Name(), err.Error()))
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		s.current = filtered
		s.state = StateFiltered
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("no filter strategy configured")
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "failed to filter the listing")
	return s.fail(ctx, StateFailed, "filter", fmt.Errorf("%w: filter on %q: %w", ErrNavigation, value, lastErr))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WaitForRows waits for the listing table to render and reads its rows. The
// current page is polled every PollInterval until RowsTimeout elapses.
func (s *Session) WaitForRows(ctx context.Context) ([]orders.RawRow, error) {
	ctx, span := tracer.Start(ctx, "client:WaitForRows")
	defer span.End()

	if !s.state.hasListing() {
		err := fmt.Errorf("%w: cannot read rows from state %s", ErrResource, s.state)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := sleep(ctx, s.opts.SettleDelay); err != nil {
		return nil, s.fail(ctx, StateFailed, "rows", fmt.Errorf("%w: %w", ErrNavigation, err))
	}

	pollCtx, cancel := context.WithTimeout(ctx, s.opts.RowsTimeout)
	defer cancel()

	for {
		if HasListing(s.current.Doc) {
			rows := DecodeRows(s.current.Doc, s.opts.RowSelectors, s.opts.ActionMarkers)
			span.SetAttributes(attribute.Int("rows", len(rows)))
			s.state = StateExtracted
			return rows, nil
		}

		if sleep(pollCtx, s.opts.PollInterval) != nil {
			break
		}
		refreshed, err := s.get(pollCtx, s.current.URL)
		if err != nil {
			slog.DebugContext(ctx, "failed to refresh the listing", "err", err)
			if pollCtx.Err() != nil {
				break
			}
			continue
		}
		s.current = refreshed
	}

	span.SetStatus(codes.Error, "listing rows did not render")
	return nil, s.fail(
		ctx, StateFailed, "rows",
		fmt.Errorf("%w: no listing table after %s", ErrNavigation, s.opts.RowsTimeout),
	)
}
