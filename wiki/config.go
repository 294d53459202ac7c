package wiki

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Version is reported in the default User-Agent
const Version = "0.7.0"

// Config holds MediaWiki connection settings
type Config struct {
	// BaseURL is the wiki API endpoint (e.g., https://en.wikipedia.org/w/api.php)
	BaseURL string

	// UserAgent identifies the client to the wiki.
	// See https://meta.wikimedia.org/wiki/User-Agent_policy
	UserAgent string

	// MaxLag is sent as the maxlag parameter on every request, in seconds.
	// See https://www.mediawiki.org/wiki/Manual:Maxlag_parameter
	MaxLag int

	// Timeout for a single HTTP round trip
	Timeout time.Duration

	// Username for bot password authentication (optional)
	Username string

	// Password for bot password authentication (optional)
	Password string

	// CredentialsFile is consulted when Username/Password are not set
	CredentialsFile string

	// RateLimit caps requests per second; zero disables pacing
	RateLimit float64
}

// DefaultConfig returns a Config for baseURL with the package defaults
func DefaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL:         baseURL,
		UserAgent:       DefaultUserAgent(),
		MaxLag:          5,
		Timeout:         30 * time.Second,
		CredentialsFile: DefaultCredentialsFile(),
	}
}

// DefaultUserAgent does not fully meet the API etiquette; callers should
// set a UserAgent with contact information.
func DefaultUserAgent() string {
	return "mwapi/" + Version
}

// DefaultCredentialsFile returns ~/.mwapi.yaml, or "" when the home
// directory is unknown.
func DefaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mwapi.yaml")
}

// LoadConfig loads configuration from MEDIAWIKI_* environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MEDIAWIKI")
	v.AutomaticEnv()
	return ConfigFromViper(v)
}

// ConfigFromViper builds a Config from an already populated viper instance.
// Keys: url, user_agent, maxlag, timeout, username, password,
// credentials_file, rate_limit.
func ConfigFromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("maxlag", 5)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("user_agent", DefaultUserAgent())
	v.SetDefault("credentials_file", DefaultCredentialsFile())

	baseURL := v.GetString("url")
	if baseURL == "" {
		return nil, errors.New("MEDIAWIKI_URL environment variable is required")
	}

	maxLag := v.GetInt("maxlag")
	if maxLag < 0 {
		maxLag = 5
	}

	return &Config{
		BaseURL:         baseURL,
		UserAgent:       v.GetString("user_agent"),
		MaxLag:          maxLag,
		Timeout:         v.GetDuration("timeout"),
		Username:        v.GetString("username"),
		Password:        v.GetString("password"),
		CredentialsFile: v.GetString("credentials_file"),
		RateLimit:       v.GetFloat64("rate_limit"),
	}, nil
}

// HasCredentials returns true if authentication credentials are configured
func (c *Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}
