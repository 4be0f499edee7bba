package atgpedi

import (
	"rapthor-backend/lib/restyutil"
	"time"
)

// SnapshotOutput stores diagnostic copies of the page a session failed on.
type SnapshotOutput interface {
	Write(id string, contents string)
	Path(id string) string
}

type Options struct {
	BaseUrl string
	// LoginPath serves the login form.
	LoginPath string
	// ListingPath is the order listing, when empty the listing link is
	// discovered on the landing page by ListingLabel.
	ListingPath  string
	ListingLabel string
	// LogoutPath is requested when the session closes, if set.
	LogoutPath string
	// DateParam is the listing's requested delivery date parameter, it is
	// also the name/id of the date input of the listing's filter form.
	DateParam string
	// Filters are tried in order by ApplyDate.
	Filters []FilterStrategy

	UsernameSelector string
	PasswordSelector string
	// RejectLoginLocation fails a login that lands back on the login URL even
	// when no password field is rendered. The default accepts it, the portal
	// serves its home page at the login URL.
	RejectLoginLocation bool

	// RowSelectors are tried in order, the first one matching rows wins.
	RowSelectors []string
	// ActionMarkers identify the "prepare dispatch advice" affordance in a
	// row's links and buttons.
	ActionMarkers []string

	UserAgent        string
	CloudflareBypass bool
	// requests per second
	RateLimit      float64
	RequestTimeout time.Duration
	// SettleDelay is waited before the listing is read.
	SettleDelay  time.Duration
	RowsTimeout  time.Duration
	PollInterval time.Duration

	// RunId prefixes snapshot names.
	RunId     string
	Snapshots SnapshotOutput
	// Dumps receives every request/response, usually only when debugging.
	Dumps restyutil.InstrumentOutput
}

const (
	DefaultBaseUrl   = "https://auchan.atgpedi.net"
	DefaultLoginPath = "/gui.php?page=accueil"
	DefaultDateParam = "doDateHeureDemandee"
)

var DefaultRowSelectors = []string{
	"tr.ligneCommande",
	"tr.LigneCommande",
	"tr.LIGNECOMMANDE",
	"table tbody tr",
}

// DefaultActionMarkers identify the control that starts a dispatch advice.
// Links that consult or download an advice already sent must not match.
var DefaultActionMarkers = []string{
	"desadv + creer",
	"desadv + preparer",
	"desadv + generer",
	"desadv + saisir",
	"avis d'expedition + creer",
	"avis d'expedition + preparer",
	"preparer l'expedition",
}

func (o Options) withDefaults() Options {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	if o.LoginPath == "" {
		o.LoginPath = DefaultLoginPath
	}
	if o.ListingLabel == "" {
		o.ListingLabel = "Commandes"
	}
	if o.DateParam == "" {
		o.DateParam = DefaultDateParam
	}
	if len(o.Filters) == 0 {
		o.Filters = []FilterStrategy{URLParamFilter{}, FormInputFilter{}}
	}
	if o.UsernameSelector == "" {
		o.UsernameSelector = "#loginField"
	}
	if o.PasswordSelector == "" {
		o.PasswordSelector = "#passwordField"
	}
	if len(o.RowSelectors) == 0 {
		o.RowSelectors = DefaultRowSelectors
	}
	if len(o.ActionMarkers) == 0 {
		o.ActionMarkers = DefaultActionMarkers
	}
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 2
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = time.Second * 60
	}
	if o.RowsTimeout <= 0 {
		o.RowsTimeout = time.Second * 30
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second * 3
	}
	if o.RunId == "" {
		o.RunId = "run"
	}
	return o
}
