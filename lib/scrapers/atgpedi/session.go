// Package atgpedi drives the supplier portal's web UI over plain HTTP: it
// fills the login form, opens the order listing, applies the delivery date
// filter and reads the listing's rows.
package atgpedi

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"rapthor-backend/lib/restyutil"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// page is a fetched and parsed portal page.
type page struct {
	URL  *url.URL
	Body []byte
	Doc  *goquery.Document
}

// Session is one exclusive, authenticated conversation with the portal.
// It is not safe for concurrent use, page operations are strictly sequential.
type Session struct {
	opts     Options
	baseUrl  *url.URL
	loginUrl *url.URL
	http     *resty.Client

	state State
	// landing is the first page after login, nil until authenticated.
	landing    *page
	listingUrl *url.URL
	current    *page
	snapshot   string
}

// Open acquires a new session, nothing is requested until Login.
func Open(ctx context.Context, opts Options) (*Session, error) {
	_, span := tracer.Start(ctx, "Open")
	defer span.End()

	opts = opts.withDefaults()

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil || baseUrl.Host == "" {
		span.SetStatus(codes.Error, "invalid base url")
		return nil, fmt.Errorf("%w: invalid base url %q", ErrResource, opts.BaseUrl)
	}
	loginRef, err := url.Parse(opts.LoginPath)
	if err != nil {
		span.SetStatus(codes.Error, "invalid login path")
		return nil, fmt.Errorf("%w: invalid login path %q", ErrResource, opts.LoginPath)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: cookie jar: %w", ErrResource, err)
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.RequestTimeout)

	// max burst >= 1 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})
	restyutil.InstrumentClient(client, tracer, opts.Dumps)

	return &Session{
		opts:     opts,
		baseUrl:  baseUrl,
		loginUrl: baseUrl.ResolveReference(loginRef),
		http:     client,
		state:    StateUnauthenticated,
	}, nil
}

func (s *Session) State() State {
	return s.state
}

// LastSnapshot is the path of the snapshot taken when the session failed,
// empty if it never failed or no snapshot output is configured.
func (s *Session) LastSnapshot() string {
	return s.snapshot
}

func (s *Session) resolve(ref string) (*url.URL, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	return s.baseUrl.ResolveReference(parsed), nil
}

func (s *Session) toPage(res *resty.Response) (*page, error) {
	if res.IsError() {
		return nil, fmt.Errorf("%s %s: unexpected status %s", res.Request.Method, res.Request.URL, res.Status())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	final := res.Request.RawRequest.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		// the last request of a redirect chain
		final = res.RawResponse.Request.URL
	}
	doc.Url = final

	return &page{
		URL:  final,
		Body: res.Body(),
		Doc:  doc,
	}, nil
}

func (s *Session) get(ctx context.Context, target *url.URL) (*page, error) {
	res, err := s.http.R().
		SetContext(ctx).
		Get(target.String())
	if err != nil {
		return nil, err
	}
	return s.toPage(res)
}

func (s *Session) submit(ctx context.Context, form submission) (*page, error) {
	req := s.http.R().SetContext(ctx)

	var res *resty.Response
	var err error
	switch form.Method {
	case "get":
		target := *form.Action
		query := target.Query()
		for k, v := range form.Values {
			query[k] = v
		}
		target.RawQuery = query.Encode()
		res, err = req.Get(target.String())
	default:
		res, err = req.SetFormDataFromValues(form.Values).Post(form.Action.String())
	}
	if err != nil {
		return nil, err
	}
	return s.toPage(res)
}

// fail moves the session to a terminal state, capturing the page that was
// on screen when things went wrong.
func (s *Session) fail(ctx context.Context, next State, reason string, err error) error {
	s.state = next
	s.snapshot = s.Snapshot(reason)
	slog.WarnContext(
		ctx, "portal session failed",
		"state", next.String(),
		"reason", reason,
		"snapshot", s.snapshot,
		"err", err,
	)
	return err
}

// Snapshot writes the current page with its location to the snapshot output
// and returns where it went.
func (s *Session) Snapshot(reason string) string {
	if s.opts.Snapshots == nil {
		return ""
	}
	current := s.current
	if current == nil {
		current = s.landing
	}

	var contents strings.Builder
	contents.WriteString(fmt.Sprintf("<!-- state: %s -->\n", s.state))
	if current == nil {
		contents.WriteString("<!-- no page was loaded -->\n")
	} else {
		contents.WriteString(fmt.Sprintf("<!-- url: %s -->\n", current.URL))
		contents.Write(current.Body)
	}

	id := fmt.Sprintf("%s-%s.html", s.opts.RunId, reason)
	s.opts.Snapshots.Write(id, contents.String())
	return s.opts.Snapshots.Path(id)
}

// Close releases the session, logging out first when a logout path is
// configured. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	defer s.http.GetClient().CloseIdleConnections()

	if s.opts.LogoutPath == "" || s.landing == nil {
		return nil
	}

	ctx, span := tracer.Start(ctx, "Close")
	defer span.End()

	// a cancelled run still deserves a logout attempt
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*10)
	defer cancel()

	logoutUrl, err := s.resolve(s.opts.LogoutPath)
	if err != nil {
		return fmt.Errorf("%w: logout path: %w", ErrResource, err)
	}
	_, err = s.get(ctx, logoutUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to logout")
		return fmt.Errorf("%w: logout: %w", ErrResource, err)
	}
	return nil
}
