package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/saffronlabs/saffron/internal/cache"
	"github.com/saffronlabs/saffron/internal/engine"
	"github.com/saffronlabs/saffron/internal/inference"
	"github.com/saffronlabs/saffron/internal/patterns"
	"github.com/saffronlabs/saffron/internal/rules"
	"github.com/saffronlabs/saffron/internal/semantic"
	"github.com/saffronlabs/saffron/internal/storage"
	"github.com/saffronlabs/saffron/internal/taxonomy"
)

// app bundles the engine with the resources it owns.
type app struct {
	engine  *engine.Engine
	store   *storage.SQLiteStorage
	learner *patterns.Learner
	cache   *cache.ResultCache
	local   *inference.LocalEngine
	tax     *taxonomy.Taxonomy
	userID  string
}

// buildApp assembles the classification engine from configuration.
// The remote and local inference stages are attached only when
// configured; their absence degrades the pipeline, never breaks it.
func buildApp(ctx context.Context) (*app, error) {
	tax, err := taxonomy.Load(viper.GetString("taxonomy.file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load taxonomy: %w", err)
	}

	a := &app{
		tax:    tax,
		cache:  newCache(),
		userID: viper.GetString("user"),
	}

	opts := []engine.Option{
		engine.WithSemantic(semantic.NewMatcher(tax)),
		engine.WithCache(a.cache),
	}

	if dbPath := databasePath(); dbPath != "" {
		store, storeErr := storage.NewSQLiteStorage(dbPath)
		if storeErr != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open database: %w", storeErr)
		}
		if migrateErr := store.Migrate(ctx); migrateErr != nil {
			_ = store.Close()
			a.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", migrateErr)
		}
		a.store = store
		a.learner = patterns.NewLearner(patterns.WithStorage(store))
	} else {
		a.learner = patterns.NewLearner()
	}
	opts = append(opts, engine.WithPatterns(a.learner))

	if apiKey := viper.GetString("inference.remote.api_key"); apiKey != "" {
		remote, remoteErr := inference.NewRemoteClient(inference.RemoteConfig{
			APIKey:  apiKey,
			Model:   viper.GetString("inference.remote.model"),
			BaseURL: viper.GetString("inference.remote.base_url"),
		})
		if remoteErr != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create remote inference client: %w", remoteErr)
		}
		opts = append(opts, engine.WithRemoteML(remote))
	}

	if viper.GetBool("inference.local.enabled") {
		local, localErr := inference.NewLocalEngine(inference.LocalConfig{
			Model:    viper.GetString("inference.local.model"),
			CacheDir: viper.GetString("inference.local.cache_dir"),
		}, tax.Labels())
		if localErr != nil {
			// Run without the local stage rather than failing outright.
			slog.Warn("local inference unavailable", "error", localErr)
		} else {
			a.local = local
			opts = append(opts, engine.WithLocalML(local))
		}
	}

	a.engine = engine.New(tax, rules.NewScorer(tax), opts...)
	return a, nil
}

// Close releases everything buildApp acquired.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.local != nil {
		_ = a.local.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

func newCache() *cache.ResultCache {
	var opts []cache.Option
	if ttl := viper.GetDuration("cache.ttl"); ttl > 0 {
		opts = append(opts, cache.WithTTL(ttl))
	}
	if max := viper.GetInt("cache.max_entries"); max > 0 {
		opts = append(opts, cache.WithMaxEntries(max))
	}
	return cache.New(opts...)
}

// databasePath resolves the configured database location, defaulting
// to the user's data directory. An explicit "none" disables storage.
func databasePath() string {
	path := viper.GetString("database.path")
	switch path {
	case "none":
		return ""
	case "":
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Warn("cannot resolve home directory, running without storage", "error", err)
			return ""
		}
		return filepath.Join(home, ".local", "share", "saffron", "saffron.db")
	default:
		return path
	}
}

func batchWorkers() int {
	workers := viper.GetInt("batch.workers")
	if workers <= 0 {
		workers = 4
	}
	return workers
}

func sinceFlag(days int) *time.Time {
	if days <= 0 {
		return nil
	}
	since := time.Now().AddDate(0, 0, -days)
	return &since
}
