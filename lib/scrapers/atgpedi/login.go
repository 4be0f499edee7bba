package atgpedi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// submission is an HTML form ready to be sent.
type submission struct {
	Action *url.URL
	Method string
	Values url.Values
}

// formValues collects the values a browser would send for the form, leaving
// out buttons and unchecked boxes.
func formValues(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input, select, textarea").Each(func(_ int, field *goquery.Selection) {
		name, ok := field.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, disabled := field.Attr("disabled"); disabled {
			return
		}

		switch goquery.NodeName(field) {
		case "select":
			option := field.Find("option[selected]").First()
			if option.Length() == 0 {
				option = field.Find("option").First()
			}
			if option.Length() == 0 {
				return
			}
			value, ok := option.Attr("value")
			if !ok {
				value = strings.TrimSpace(option.Text())
			}
			values.Add(name, value)
			return
		case "textarea":
			values.Add(name, field.Text())
			return
		}

		switch strings.ToLower(field.AttrOr("type", "text")) {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := field.Attr("checked"); !checked {
				return
			}
			values.Add(name, field.AttrOr("value", "on"))
			return
		}
		values.Add(name, field.AttrOr("value", ""))
	})
	return values
}

// formSubmission prepares `form` found on page `p`. The action resolves
// against the page's location and the method defaults to POST.
func formSubmission(p *page, form *goquery.Selection) (submission, error) {
	action := p.URL
	if ref := strings.TrimSpace(form.AttrOr("action", "")); ref != "" {
		parsed, err := url.Parse(ref)
		if err != nil {
			return submission{}, fmt.Errorf("invalid form action %q: %w", ref, err)
		}
		action = p.URL.ResolveReference(parsed)
	}

	method := strings.ToLower(strings.TrimSpace(form.AttrOr("method", "")))
	if method != "get" {
		method = "post"
	}

	return submission{
		Action: action,
		Method: method,
		Values: formValues(form),
	}, nil
}

// passwordField finds the password input of a page.
func (s *Session) passwordField(doc *goquery.Document) *goquery.Selection {
	field := doc.Find(s.opts.PasswordSelector).First()
	if field.Length() == 0 {
		field = doc.Find("input[type=password]").First()
	}
	return field
}

func (s *Session) usernameField(form *goquery.Selection) *goquery.Selection {
	field := form.Find(s.opts.UsernameSelector).First()
	if field.Length() == 0 {
		field = form.Find("input[type=text], input[type=email], input:not([type])").First()
	}
	return field
}

func sameLocation(a, b *url.URL) bool {
	return a.Scheme == b.Scheme &&
		strings.EqualFold(a.Host, b.Host) &&
		a.Path == b.Path &&
		a.Query().Encode() == b.Query().Encode()
}

// Login fills and submits the portal's login form.
func (s *Session) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if s.state != StateUnauthenticated {
		err := fmt.Errorf("%w: cannot login from state %s", ErrResource, s.state)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.state = StateAuthenticating

	loginPage, err := s.get(ctx, s.loginUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return s.fail(ctx, StateFailed, "login-page", fmt.Errorf("%w: login page: %w", ErrNavigation, err))
	}
	s.current = loginPage

	passwordInput := s.passwordField(loginPage.Doc)
	form := passwordInput.Closest("form")
	if passwordInput.Length() == 0 || form.Length() == 0 {
		span.SetStatus(codes.Error, "failed to find login form")
		return s.fail(ctx, StateAuthFailed, "login-form", fmt.Errorf("%w: could not find the login form", ErrAuthentication))
	}
	usernameInput := s.usernameField(form)

	usernameName := usernameInput.AttrOr("name", "")
	passwordName := passwordInput.AttrOr("name", "")
	if usernameName == "" || passwordName == "" {
		span.SetStatus(codes.Error, "unnamed login fields")
		return s.fail(ctx, StateAuthFailed, "login-form", fmt.Errorf("%w: login fields have no name", ErrAuthentication))
	}

	sub, err := formSubmission(loginPage, form)
	if err != nil {
		span.RecordError(err)
		return s.fail(ctx, StateAuthFailed, "login-form", fmt.Errorf("%w: %w", ErrAuthentication, err))
	}
	sub.Values.Set(usernameName, username)
	sub.Values.Set(passwordName, password)

	landing, err := s.submit(ctx, sub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit login form")
		return s.fail(ctx, StateFailed, "login-submit", fmt.Errorf("%w: submit login: %w", ErrNavigation, err))
	}
	s.current = landing

	stillOnLogin := sameLocation(landing.URL, s.loginUrl) && s.opts.RejectLoginLocation
	if stillOnLogin || s.passwordField(landing.Doc).Length() > 0 {
		span.SetStatus(codes.Error, ErrAuthentication.Error())
		return s.fail(ctx, StateAuthFailed, "login", fmt.Errorf("%w: the portal did not accept the credentials", ErrAuthentication))
	}

	s.landing = landing
	s.state = StateAuthenticated
	return nil
}
