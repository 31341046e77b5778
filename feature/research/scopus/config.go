package scopus

// Config holds configuration for the Scopus Search API client.
type Config struct {
	// BaseURL is the search endpoint.
	BaseURL string `mapstructure:"base_url" default:"https://api.elsevier.com/content/search/scopus"`
	// ApiKey is sent as X-ELS-APIKey. Searching fails while it is empty.
	ApiKey string `mapstructure:"api_key" default:""`
	// InstToken is sent as X-ELS-Insttoken when set.
	InstToken string `mapstructure:"inst_token" default:""`
	// PageSize is the number of entries per request.
	PageSize int `mapstructure:"page_size" default:"25"`
	// HardCeiling is the largest start offset the API serves.
	HardCeiling int `mapstructure:"hard_ceiling" default:"1000"`
	// RateLimitPerSec caps outgoing requests.
	RateLimitPerSec float64 `mapstructure:"rate_limit_per_sec" default:"5"`
	// TimeoutSeconds bounds one request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// DefaultAffiliation is the scope used when a request names none.
	DefaultAffiliation string `mapstructure:"default_affiliation" default:"vet"`
}
