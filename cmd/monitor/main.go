package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"social_monitor/internal/config"
	"social_monitor/internal/fetcher"
	"social_monitor/internal/monitor"
	"social_monitor/internal/notify"
	"social_monitor/internal/source"
	"social_monitor/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "monitor",
		Short:         "Watch social platforms for new posts and announce them to chat webhooks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newCacheCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one monitoring pass over all sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("load config", "error", err)
				return err
			}
			log := newLogger(cfg.LogLevel)
			ctx := cmd.Context()

			store, err := openStore(cfg)
			if err != nil {
				log.Error("open cache store", "error", err)
				return err
			}
			defer func() { _ = store.Close() }()

			cache, err := store.Load(ctx)
			if err != nil {
				log.Error("load cache", "error", err)
				return err
			}

			fetch := fetcher.New(fetcher.Options{InsecureSkipVerify: cfg.InsecureSkipVerify})
			notifier := notify.NewWebhook(notify.Options{
				PrimaryURL:    cfg.PrimaryWebhookURL,
				LogURL:        cfg.LogWebhookURL,
				MentionUserID: cfg.MentionUserID,
			}, log)

			var api source.VideoAPI
			if cfg.YouTubeAPIKey != "" {
				api = source.NewYouTubeAPI(cfg.YouTubeAPIKey, fetch)
			}
			checkers := []source.Checker{
				source.NewYouTube(api, notifier, cache, log),
				source.NewInstagram(fetch, notifier, cache, log),
			}

			runner := monitor.New(monitor.Options{
				Checkers:      checkers,
				Store:         store,
				Notifier:      notifier,
				Cache:         cache,
				AutomatedRun:  cfg.AutomatedRun,
				MentionUserID: cfg.MentionUserID,
			}, log)

			// The run "succeeds" when it completed; per-source outcomes
			// surface through the summary notification and logs.
			runner.RunAll(ctx)
			return nil
		},
	}
}

func newCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Print the persisted cache entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cache, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(cache))
			for k := range cache {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, cache[k])
			}
			return nil
		},
	}
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.CacheBackend == config.BackendSQLite {
		if dir := filepath.Dir(cfg.CachePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		return storage.NewSQLite(cfg.CachePath)
	}
	return storage.NewFile(cfg.CachePath), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
