package commands

import (
	"fmt"
	"rapthor-backend/lib/configutil"
	"rapthor-backend/lib/export"
	"rapthor-backend/lib/orders"
	"rapthor-backend/lib/scrapers/atgpedi"
	"rapthor-backend/services/extraction"
	"time"

	"github.com/govalues/decimal"
)

type PortalConfig struct {
	BaseUrl             string   `json:"base_url"`
	LoginPath           string   `json:"login_path"`
	ListingPath         string   `json:"listing_path"`
	ListingLabel        string   `json:"listing_label"`
	LogoutPath          string   `json:"logout_path"`
	DateParam           string   `json:"date_param"`
	UsernameSelector    string   `json:"username_selector"`
	PasswordSelector    string   `json:"password_selector"`
	RejectLoginLocation bool     `json:"reject_login_location"`
	RowSelectors        []string `json:"row_selectors"`
	ActionMarkers       []string `json:"action_markers"`
	UserAgent           string   `json:"user_agent"`
	// the cloudflare transport is on unless disabled
	DisableCloudflareBypass bool    `json:"disable_cloudflare_bypass"`
	RateLimit               float64 `json:"rate_limit"`
	RequestTimeoutSeconds   float64 `json:"request_timeout_seconds"`
	SettleDelaySeconds      float64 `json:"settle_delay_seconds"`
	RowsTimeoutSeconds      float64 `json:"rows_timeout_seconds"`
	PollIntervalSeconds     float64 `json:"poll_interval_seconds"`
}

type ExtractionConfig struct {
	Threshold string `json:"threshold"`
	// WindowStart and WindowEnd are DD/MM/YYYY, both or neither.
	WindowStart         string   `json:"window_start"`
	WindowEnd           string   `json:"window_end"`
	Week                bool     `json:"week"`
	KeepPortalFilter    bool     `json:"keep_portal_filter"`
	DesadvMarkers       []string `json:"desadv_markers"`
	MaxAttempts         int      `json:"max_attempts"`
	RetryBackoffSeconds float64  `json:"retry_backoff_seconds"`
	RunTimeoutSeconds   float64  `json:"run_timeout_seconds"`
}

type Config struct {
	Username   string           `json:"username"`
	Password   string           `json:"password"`
	Portal     PortalConfig     `json:"portal"`
	Extraction ExtractionConfig `json:"extraction"`
	// SnapshotDir receives the page a failed run stopped on.
	SnapshotDir string `json:"snapshot_dir"`
	// DumpDir receives every http exchange when set.
	DumpDir   string            `json:"dump_dir"`
	ExportDir string            `json:"export_dir"`
	Smtp      export.SmtpConfig `json:"smtp"`
	MailTo    []string          `json:"mail_to"`
}

var defaultConfig = Config{
	Portal: PortalConfig{
		BaseUrl:               atgpedi.DefaultBaseUrl,
		LoginPath:             atgpedi.DefaultLoginPath,
		ListingLabel:          "Commandes",
		DateParam:             atgpedi.DefaultDateParam,
		RateLimit:             2,
		RequestTimeoutSeconds: 60,
		SettleDelaySeconds:    3,
		RowsTimeoutSeconds:    30,
		PollIntervalSeconds:   3,
	},
	Extraction: ExtractionConfig{
		Threshold:           "850",
		MaxAttempts:         2,
		RetryBackoffSeconds: 5,
		RunTimeoutSeconds:   300,
	},
	SnapshotDir: ".dev/snapshots",
	ExportDir:   ".",
	Smtp: export.SmtpConfig{
		Port: 587,
	},
}

// loadConfig reads the config file over the defaults, then the credentials
// from the environment (and .env).
func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfigWithDefaults(path, defaultConfig)
	if err != nil {
		return Config{}, err
	}

	configutil.LoadDotenv()
	cfg.Username = configutil.Getenv("RAPTHOR_USERNAME", cfg.Username)
	cfg.Password = configutil.Getenv("RAPTHOR_PASSWORD", cfg.Password)
	cfg.Smtp.Password = configutil.Getenv("RAPTHOR_SMTP_PASSWORD", cfg.Smtp.Password)

	return cfg, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (c PortalConfig) options(runId string) atgpedi.Options {
	return atgpedi.Options{
		BaseUrl:             c.BaseUrl,
		LoginPath:           c.LoginPath,
		ListingPath:         c.ListingPath,
		ListingLabel:        c.ListingLabel,
		LogoutPath:          c.LogoutPath,
		DateParam:           c.DateParam,
		UsernameSelector:    c.UsernameSelector,
		PasswordSelector:    c.PasswordSelector,
		RejectLoginLocation: c.RejectLoginLocation,
		RowSelectors:        c.RowSelectors,
		ActionMarkers:       c.ActionMarkers,
		UserAgent:           c.UserAgent,
		CloudflareBypass:    !c.DisableCloudflareBypass,
		RateLimit:           c.RateLimit,
		RequestTimeout:      seconds(c.RequestTimeoutSeconds),
		SettleDelay:         seconds(c.SettleDelaySeconds),
		RowsTimeout:         seconds(c.RowsTimeoutSeconds),
		PollInterval:        seconds(c.PollIntervalSeconds),
		RunId:               runId,
	}
}

// options turns the config into service options, `open` is left to the
// caller.
func (c ExtractionConfig) options() (extraction.Options, error) {
	opts := extraction.Options{
		Week:             c.Week,
		KeepPortalFilter: c.KeepPortalFilter,
		DesadvMarkers:    c.DesadvMarkers,
		MaxAttempts:      c.MaxAttempts,
		RetryBackoff:     seconds(c.RetryBackoffSeconds),
		RunTimeout:       seconds(c.RunTimeoutSeconds),
	}

	if c.Threshold != "" {
		threshold, err := decimal.Parse(c.Threshold)
		if err != nil {
			return opts, fmt.Errorf("invalid threshold %q: %w", c.Threshold, err)
		}
		opts.Threshold = &threshold
	}

	if c.WindowStart != "" || c.WindowEnd != "" {
		start, ok := orders.ParseDate(c.WindowStart)
		if !ok {
			return opts, fmt.Errorf("invalid window start %q", c.WindowStart)
		}
		end, ok := orders.ParseDate(c.WindowEnd)
		if !ok {
			return opts, fmt.Errorf("invalid window end %q", c.WindowEnd)
		}
		opts.Window = &extraction.Window{Start: start, End: end}
	}

	return opts, nil
}
