package main

import (
	"log"
	"net/http"

	"x-proxy/internal/cache"
	"x-proxy/internal/config"
	"x-proxy/internal/handlers"
	"x-proxy/internal/httpserver"
	"x-proxy/internal/logging"
	"x-proxy/internal/xapi"
)

func main() {
	cfg := config.FromEnv()
	logging.Init(cfg.Debug)

	if cfg.BearerToken == "" && !cfg.HasOAuth() {
		log.Fatal("X_BEARER_TOKEN is required (or a full X_CONSUMER_*/X_ACCESS_* OAuth1 credential set)")
	}

	svc := xapi.NewService(xapi.NewClient(clientOptions(cfg)))
	h := handlers.Handler{
		Service:  svc,
		CacheTTL: cfg.CacheTTL,
		APIBase:  cfg.APIBase,
	}

	srv := httpserver.NewServer(cfg.Port, h)
	log.Printf("x-proxy listening on :%s (api base %s, cache ttl %s)", cfg.Port, cfg.APIBase, cfg.CacheTTL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func clientOptions(cfg config.Config) xapi.ClientOptions {
	opts := xapi.ClientOptions{
		BaseURL:     cfg.APIBase,
		BearerToken: cfg.BearerToken,
		Timeout:     cfg.HTTPTimeout,
		Cache:       cache.New(),
		CacheTTL:    cfg.CacheTTL,
		Debug:       cfg.Debug,
	}
	if cfg.HasOAuth() {
		opts.OAuth = &xapi.OAuthCredentials{
			ConsumerKey:    cfg.ConsumerKey,
			ConsumerSecret: cfg.ConsumerSecret,
			AccessToken:    cfg.AccessToken,
			AccessSecret:   cfg.AccessSecret,
		}
	}
	return opts
}
