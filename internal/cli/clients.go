package cli

import (
	"github.com/pdevulapally/fakeverifier-data/internal/hub"
	"github.com/pdevulapally/fakeverifier-data/internal/model"
	"github.com/pdevulapally/fakeverifier-data/internal/pipeline"
	"github.com/pdevulapally/fakeverifier-data/internal/util"
)

// hubOptions builds the shared client options; both hub clients share one
// per-host limiter.
func hubOptions(cfg *model.Config, endpoint string, limiter *util.Limiter) hub.Options {
	return hub.Options{
		Endpoint:  endpoint,
		Token:     cfg.Hub.Token,
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTP.Timeout,
		Limiter:   limiter,
		Transport: util.NewTransport(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
	}
}

func newLimiter(cfg *model.Config) *util.Limiter {
	return util.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
}

func newFetcher(cfg *model.Config, limiter *util.Limiter) *pipeline.Fetcher {
	return pipeline.NewFetcher(pipeline.FetcherOptions{
		Timeout:       cfg.HTTP.Timeout,
		UserAgent:     cfg.HTTP.UserAgent,
		MaxBytes:      cfg.HTTP.MaxBodyBytes,
		InsecureTLS:   cfg.HTTP.InsecureTLS,
		RespectRobots: cfg.HTTP.RespectRobots,
		HTTPProxy:     cfg.HTTP.HTTPProxy,
		HTTPSProxy:    cfg.HTTP.HTTPSProxy,
		NoProxy:       cfg.HTTP.NoProxy,
		Limiter:       limiter,
	})
}
