package devenv

// PortalTestConfig is read from dev/.state/portal_config.json5 by tests that
// talk to the real portal.
type PortalTestConfig struct {
	BaseUrl     string `json:"base_url"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	ListingPath string `json:"listing_path"`
	// Date is the DD/MM/YYYY delivery day to filter on, empty clears the filter.
	Date string `json:"date"`
}
