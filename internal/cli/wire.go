package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/dnscache"
	"golang.org/x/term"

	"github.com/eugener/linear/internal/app"
	"github.com/eugener/linear/internal/cache"
	"github.com/eugener/linear/internal/graphql"
	"github.com/eugener/linear/internal/storage/sqlite"
)

// service builds the GraphQL client, cache and Resolver on first use.
func (s *session) service() (*app.Service, error) {
	if s.svc != nil {
		return s.svc, nil
	}

	var resolver *dnscache.Resolver
	if s.cfg.API.DNSCache {
		resolver = &dnscache.Resolver{}
	}
	hc, err := graphql.NewHTTPClient(graphql.Credentials{
		Type: s.cfg.API.AuthType,
		Key:  s.cfg.API.Key,
	}, resolver)
	if err != nil {
		return nil, err
	}
	client := graphql.New(graphql.Options{
		Endpoint:   s.cfg.API.URL,
		HTTPClient: hc,
		Timeout:    s.cfg.API.Timeout,
		Retries:    s.cfg.API.Retries,
		RetryWait:  s.cfg.API.RetryWait,
		Logger:     s.log,
	})

	var store cache.Store
	if s.cfg.Cache.CachingEnabled() && !s.noCache {
		if store, err = s.cacheStore(); err != nil {
			return nil, err
		}
	}

	r := app.NewResolver(store, client, app.WithMetrics(s.metrics), app.WithLogger(s.log))
	s.svc = app.NewService(r, app.DefaultConcurrency)
	return s.svc, nil
}

// cacheStore returns the configured cache backend.
func (s *session) cacheStore() (cache.Store, error) {
	if s.store != nil {
		return s.store, nil
	}

	ttl := s.cfg.Cache.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	switch s.cfg.Cache.Backend {
	case "memory":
		m, err := cache.NewMemory(s.cfg.Cache.MaxSize, ttl, nil)
		if err != nil {
			return nil, err
		}
		s.store = m
	case "sqlite":
		dir, err := s.cfg.Cache.Path()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: create dir: %w", err)
		}
		db, err := sqlite.New(filepath.Join(dir, sqlite.FileName), ttl, sqlite.WithLogger(s.log))
		if err != nil {
			return nil, fmt.Errorf("cache: open sqlite: %w", err)
		}
		s.closers = append(s.closers, func(context.Context) error { return db.Close() })
		s.store = db
	default:
		dir, err := s.cfg.Cache.Path()
		if err != nil {
			return nil, err
		}
		s.store = cache.NewDisk(dir, ttl, cache.WithLogger(s.log))
	}
	return s.store, nil
}

// colorEnabled applies output.color; "auto" colors only a terminal stdout.
func (s *session) colorEnabled() bool {
	switch s.cfg.Output.Color {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := s.stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
