package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./kindle-sync.db"

	// DefaultCookieFile is where the imported Amazon session cookies live
	DefaultCookieFile = "./cookies.json"

	// DefaultUserAgent is sent on every scraping request. The notebook page
	// serves a reduced mobile layout to unrecognized agents.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
)
