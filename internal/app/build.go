package app

import (
	"context"
	"fmt"

	"github.com/beacon-bot/beacon/internal/config"
	"github.com/beacon-bot/beacon/internal/dispatch"
	"github.com/beacon-bot/beacon/internal/form"
	"github.com/beacon-bot/beacon/internal/gateway"
	"github.com/beacon-bot/beacon/internal/httpapi"
	"github.com/beacon-bot/beacon/internal/listing"
	"github.com/beacon-bot/beacon/internal/observability"
	"github.com/beacon-bot/beacon/internal/policy"
	"github.com/beacon-bot/beacon/internal/profile"
)

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Service  *dispatch.Service
	Hub      *gateway.Hub
	Profiles *profile.Repository
	Metrics  *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func()
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := profile.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("profile store init failed: %w", err)
	}
	profiles := profile.NewRepository(store)
	if err := profiles.Hydrate(ctx); err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("profile hydration failed: %w", err)
	}

	hub := gateway.NewHub()
	forms := form.NewEngine(form.NewStore(), profiles, listing.FormatPreview, cfg.MaxImages, cfg.MaxVideos)
	registry := listing.NewRegistry(hub, cfg.BroadcastChannel)
	auth := policy.NewAllowlist(cfg.ApprovedOperators)

	svc := dispatch.NewService(auth, forms, profiles, registry, hub, hub, metrics,
		cfg.ListingDurations, cfg.BroadcastChannel)

	api := httpapi.New(cfg, svc, hub, metrics)

	cleanup := func() {
		svc.Close()
		if store != nil {
			store.Close()
		}
	}

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Service:  svc,
		Hub:      hub,
		Profiles: profiles,
		Metrics:  metrics,
		Cleanup:  cleanup,
	}, nil
}
