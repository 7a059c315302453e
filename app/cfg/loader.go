package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Application configuration
	DataDir   string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory receiving snapshot JSON files"`
	StateDir  string `long:"state-dir" env:"STATE_DIR" default:"./data/state" description:"Directory holding sync state files"`
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"site-sync/1.0" description:"User agent string for HTTP requests"`
	Timeout   int    `long:"timeout" env:"HTTP_TIMEOUT" default:"30" description:"Outbound HTTP timeout in seconds"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogFile   string `long:"log-file" env:"LOG_FILE" description:"Write logs to a rotated file instead of stderr"`

	SyncBookmarks BookmarksCommand `command:"sync-bookmarks" description:"Publish new Slack links as Micro.blog bookmarks"`
	SyncBooks     BooksCommand     `command:"sync-books" description:"Add new Slack book mentions to a Micro.blog bookshelf"`
	Lastfm        LastfmCommand    `command:"lastfm" description:"Snapshot recently played Last.fm tracks"`
	Feeds         FeedsCommand     `command:"feeds" description:"Snapshot RSS, Atom and JSON feeds listed in the feeds directory"`
}

// SyncOptions are shared by both Slack driven pipelines.
type SyncOptions struct {
	SlackURL       string        `long:"slack-url" env:"SLACK_API_URL" default:"https://slack.com/api" description:"Slack Web API base URL"`
	SlackToken     string        `long:"slack-token" env:"SLACK_BOT_TOKEN" required:"true" description:"Slack bot token"`
	HistoryLimit   int           `long:"history-limit" env:"SLACK_HISTORY_LIMIT" default:"100" description:"Number of channel messages to read per run"`
	MicroblogToken string        `long:"microblog-token" env:"MICROBLOG_TOKEN" required:"true" description:"Micro.blog app token"`
	PublishDelay   time.Duration `long:"publish-delay" env:"PUBLISH_DELAY" default:"1s" description:"Pause between two publish calls"`
}

type BookmarksCommand struct {
	SyncOptions

	Channel          string `long:"channel" env:"SLACK_BOOKMARKS_CHANNEL" required:"true" description:"Slack channel holding bookmark links"`
	SelfDomain       string `long:"self-domain" env:"SLACK_SELF_DOMAIN" default:"slack.com" description:"Links to this domain are never bookmarked"`
	MicropubEndpoint string `long:"micropub-endpoint" env:"MICROPUB_ENDPOINT" default:"https://micro.blog/micropub" description:"Micropub endpoint"`
}

type BooksCommand struct {
	SyncOptions

	Channel        string `long:"channel" env:"SLACK_BOOKS_CHANNEL" required:"true" description:"Slack channel holding book mentions"`
	BooksURL       string `long:"books-url" env:"MICROBLOG_BOOKS_URL" default:"https://micro.blog/books" description:"Micro.blog books API base URL"`
	BookshelfID    string `long:"bookshelf-id" env:"MICROBLOG_BOOKSHELF_ID" description:"Target bookshelf (resolved by name when empty)"`
	OpenLibraryURL string `long:"openlibrary-url" env:"OPENLIBRARY_URL" default:"https://openlibrary.org" description:"Open Library base URL"`
}

type LastfmCommand struct {
	LastfmURL string `long:"lastfm-url" env:"LASTFM_URL" default:"https://ws.audioscrobbler.com/2.0/" description:"Last.fm API endpoint"`
	APIKey    string `long:"api-key" env:"LASTFM_API_KEY" required:"true" description:"Last.fm API key"`
	User      string `long:"user" env:"LASTFM_USER" required:"true" description:"Last.fm user name"`
	Limit     int    `long:"limit" env:"LASTFM_LIMIT" default:"10" description:"Number of recent tracks to keep"`
}

type FeedsCommand struct {
	FeedsDir string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed job files"`
}

// Load parses args and the environment into a Cfg. It returns nil, nil when
// help was requested.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	// Errors are reported once by the caller, so PrintErrors is left out.
	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			return nil, nil
		}
		return nil, &ConfigError{Err: err}
	}

	if parser.Active == nil {
		return nil, &ConfigError{Err: errors.New("no command given")}
	}

	cfg := &Cfg{
		Command:   parser.Active.Name,
		DataDir:   raw.DataDir,
		StateDir:  raw.StateDir,
		UserAgent: raw.UserAgent,
		Timeout:   time.Duration(raw.Timeout) * time.Second,
		Timezone:  raw.Timezone,
		Debug:     raw.Debug,
		LogFile:   raw.LogFile,
		Version:   GetVersion(),
	}

	switch cfg.Command {
	case CommandSyncBookmarks:
		c := raw.SyncBookmarks
		cfg.Slack = SlackCfg{
			BaseURL:      c.SlackURL,
			Token:        c.SlackToken,
			Channel:      c.Channel,
			HistoryLimit: c.HistoryLimit,
			SelfDomain:   c.SelfDomain,
		}
		cfg.Microblog = MicroblogCfg{
			Token:            c.MicroblogToken,
			MicropubEndpoint: c.MicropubEndpoint,
		}
		cfg.PublishDelay = c.PublishDelay
	case CommandSyncBooks:
		c := raw.SyncBooks
		cfg.Slack = SlackCfg{
			BaseURL:      c.SlackURL,
			Token:        c.SlackToken,
			Channel:      c.Channel,
			HistoryLimit: c.HistoryLimit,
		}
		cfg.Microblog = MicroblogCfg{
			Token:       c.MicroblogToken,
			BooksURL:    c.BooksURL,
			BookshelfID: c.BookshelfID,
		}
		cfg.OpenLibraryURL = c.OpenLibraryURL
		cfg.PublishDelay = c.PublishDelay
	case CommandLastfm:
		c := raw.Lastfm
		cfg.Lastfm = LastfmCfg{
			BaseURL: c.LastfmURL,
			APIKey:  c.APIKey,
			User:    c.User,
			Limit:   c.Limit,
		}
	case CommandFeeds:
		cfg.FeedsDir = raw.Feeds.FeedsDir
	}

	if err := validate(cfg); err != nil {
		return nil, &ConfigError{Err: err}
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	switch cfg.Command {
	case CommandSyncBookmarks, CommandSyncBooks:
		requiredFields := map[string]string{
			"slack token":     cfg.Slack.Token,
			"slack channel":   cfg.Slack.Channel,
			"microblog token": cfg.Microblog.Token,
		}
		for fieldName, fieldValue := range requiredFields {
			if strings.TrimSpace(fieldValue) == "" {
				return fmt.Errorf("%s is required", fieldName)
			}
		}
		if cfg.Slack.HistoryLimit <= 0 {
			return fmt.Errorf("history limit must be positive")
		}
		if cfg.PublishDelay < 0 {
			return fmt.Errorf("publish delay must be non-negative")
		}
	case CommandLastfm:
		if strings.TrimSpace(cfg.Lastfm.APIKey) == "" || strings.TrimSpace(cfg.Lastfm.User) == "" {
			return fmt.Errorf("lastfm api key and user are required")
		}
		if cfg.Lastfm.Limit <= 0 {
			return fmt.Errorf("lastfm limit must be positive")
		}
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
