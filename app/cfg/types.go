package cfg

import "time"

const (
	CommandSyncBookmarks = "sync-bookmarks"
	CommandSyncBooks     = "sync-books"
	CommandLastfm        = "lastfm"
	CommandFeeds         = "feeds"
)

type Cfg struct {
	// Selected sub-command
	Command string

	// Application configuration
	DataDir   string
	StateDir  string
	UserAgent string
	Timeout   time.Duration
	Timezone  string
	Debug     bool
	LogFile   string
	Version   string

	// Sync pipelines
	Slack          SlackCfg
	Microblog      MicroblogCfg
	OpenLibraryURL string
	PublishDelay   time.Duration

	// Snapshot jobs
	Lastfm   LastfmCfg
	FeedsDir string
}

type SlackCfg struct {
	BaseURL      string
	Token        string
	Channel      string
	HistoryLimit int
	SelfDomain   string
}

type MicroblogCfg struct {
	Token            string
	MicropubEndpoint string
	BooksURL         string
	BookshelfID      string
}

type LastfmCfg struct {
	BaseURL string
	APIKey  string
	User    string
	Limit   int
}
