package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lysyi3m/site-sync/app/cfg"
	"github.com/lysyi3m/site-sync/app/enrich"
	"github.com/lysyi3m/site-sync/app/feed"
	"github.com/lysyi3m/site-sync/app/lastfm"
	"github.com/lysyi3m/site-sync/app/microblog"
	"github.com/lysyi3m/site-sync/app/pipeline"
	"github.com/lysyi3m/site-sync/app/slack"
	"github.com/lysyi3m/site-sync/app/state"
	"github.com/lysyi3m/site-sync/app/tasks"
	"github.com/lysyi3m/site-sync/app/web"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2

	taskTimeout = 10 * time.Minute
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	config, err := cfg.Load(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}
	if config == nil {
		return exitOK
	}

	closeLog := setupLogger(config)
	defer closeLog()

	slog.Info("Starting site-sync", "version", config.Version, "command", config.Command)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := tasks.NewRunner(taskTimeout)

	switch config.Command {
	case cfg.CommandSyncBookmarks:
		return exitCode(runner.Run(ctx, newBookmarksTask(config)))
	case cfg.CommandSyncBooks:
		return exitCode(runner.Run(ctx, newBooksTask(config)))
	case cfg.CommandLastfm:
		return exitCode(runner.Run(ctx, newLastfmTask(config)))
	case cfg.CommandFeeds:
		return runFeeds(ctx, config, runner)
	default:
		slog.Error("Unknown command", "command", config.Command)
		return exitConfigError
	}
}

// setupLogger installs the default slog logger and returns a function that
// flushes and closes the log file, if any.
func setupLogger(config *cfg.Cfg) func() {
	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}

	var output io.Writer = os.Stderr
	closer := func() {}
	if config.LogFile != "" {
		logFile := &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		output = logFile
		closer = func() { logFile.Close() }
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})))
	return closer
}

func newBookmarksTask(config *cfg.Cfg) tasks.TaskInterface {
	p := pipeline.NewPipeline("bookmarks", pipeline.Components{
		Channel: config.Slack.Channel,
		Limit:   config.Slack.HistoryLimit,
		Source:  newSlackClient(config),
		Extract: func(messages []pipeline.RawMessage) []pipeline.Candidate {
			return pipeline.ExtractBookmarks(messages, config.Slack.SelfDomain)
		},
		Enricher:     enrich.NewTitleResolver(web.NewClient(config.UserAgent, config.Timeout)),
		Publisher:    microblog.NewMicropub(web.NewClient(config.UserAgent, config.Timeout), config.Microblog.MicropubEndpoint, config.Microblog.Token),
		Store:        state.NewFileStore(filepath.Join(config.StateDir, "bookmarks.json"), state.BookmarksField),
		PublishDelay: config.PublishDelay,
	})

	return tasks.NewSyncTask(tasks.TaskTypeSyncBookmarks, p, nil)
}

func newBooksTask(config *cfg.Cfg) tasks.TaskInterface {
	books := microblog.NewBooks(web.NewClient(config.UserAgent, config.Timeout), config.Microblog.BooksURL, config.Microblog.Token, config.Microblog.BookshelfID)

	p := pipeline.NewPipeline("books", pipeline.Components{
		Channel:      config.Slack.Channel,
		Limit:        config.Slack.HistoryLimit,
		Source:       newSlackClient(config),
		Extract:      pipeline.ExtractBooks,
		Enricher:     enrich.NewOpenLibrary(web.NewClient(config.UserAgent, config.Timeout), config.OpenLibraryURL),
		Publisher:    books,
		Store:        state.NewFileStore(filepath.Join(config.StateDir, "books.json"), state.BooksField),
		PublishDelay: config.PublishDelay,
	})

	resolveBookshelf := func(ctx context.Context) error {
		_, err := books.ResolveBookshelf(ctx)
		if errors.Is(err, microblog.ErrBookshelfNotFound) {
			return &cfg.ConfigError{Err: err}
		}
		return err
	}

	return tasks.NewSyncTask(tasks.TaskTypeSyncBooks, p, resolveBookshelf)
}

func newSlackClient(config *cfg.Cfg) *slack.Client {
	return slack.NewClient(web.NewClient(config.UserAgent, config.Timeout), config.Slack.BaseURL, config.Slack.Token)
}

func newLastfmTask(config *cfg.Cfg) tasks.TaskInterface {
	client := lastfm.NewClient(web.NewClient(config.UserAgent, config.Timeout), config.Lastfm.BaseURL, config.Lastfm.APIKey)
	return tasks.NewLastfmSnapshotTask(config.Lastfm.User, config.Lastfm.Limit, filepath.Join(config.DataDir, "lastfm.json"), client)
}

func runFeeds(ctx context.Context, config *cfg.Cfg, runner *tasks.Runner) int {
	configCache := feed.NewConfigCache(config.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed jobs", "dir", config.FeedsDir, "error", err)
		return exitConfigError
	}

	jobs := configCache.GetEnabledConfigs()
	if len(jobs) == 0 {
		slog.Warn("No enabled feed jobs", "dir", config.FeedsDir, "configured", configCache.GetConfigCount())
		return exitOK
	}

	fetcher := tasks.NewHTTPFeedFetcher(web.NewClient(config.UserAgent, config.Timeout))
	parser := feed.NewParser()
	filterer := feed.NewFilterer()

	feedTasks := make([]tasks.TaskInterface, 0, len(jobs))
	for _, job := range jobs {
		feedTasks = append(feedTasks, tasks.NewFeedSnapshotTask(job, fetcher, parser, filterer, config.DataDir))
	}

	failed := runner.RunAll(ctx, feedTasks)
	slog.Info("Feed snapshots finished", "jobs", len(feedTasks), "failed", failed)

	if failed == len(feedTasks) {
		return exitFailure
	}
	return exitOK
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var configErr *cfg.ConfigError
	if errors.As(err, &configErr) {
		return exitConfigError
	}

	return exitFailure
}
