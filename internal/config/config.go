package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the binaries read from the environment.
type Config struct {
	Port        string
	APIBase     string
	BearerToken string

	// Optional OAuth1 user-context credentials. When all four are set
	// they take precedence over the app-only bearer token.
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string

	CacheTTL    time.Duration
	HTTPTimeout time.Duration
	Debug       bool
}

// FromEnv loads the configuration with sensible defaults.
func FromEnv() Config {
	c := Config{
		Port:           getenv("PORT", "8080"),
		APIBase:        getenv("API_BASE", "https://api.x.com/2"),
		BearerToken:    os.Getenv("X_BEARER_TOKEN"),
		ConsumerKey:    os.Getenv("X_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("X_CONSUMER_SECRET"),
		AccessToken:    os.Getenv("X_ACCESS_TOKEN"),
		AccessSecret:   os.Getenv("X_ACCESS_SECRET"),
		Debug:          os.Getenv("XPROXY_DEBUG") != "",
	}

	c.CacheTTL = time.Duration(getenvi("CACHE_TTL", 60)) * time.Second
	if d, err := time.ParseDuration(getenv("HTTP_TIMEOUT", "20s")); err == nil {
		c.HTTPTimeout = d
	} else {
		c.HTTPTimeout = 20 * time.Second
	}
	return c
}

// HasOAuth reports whether a complete OAuth1 credential set is present.
func (c Config) HasOAuth() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if iv, err := strconv.Atoi(v); err == nil {
			return iv
		}
	}
	return def
}
