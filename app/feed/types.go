package feed

import (
	"time"
)

// Snapshot types

type Snapshot struct {
	Title     string         `json:"title"`
	Link      string         `json:"link"`
	Items     []SnapshotItem `json:"items"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type SnapshotItem struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Link       string     `json:"link"`
	Author     string     `json:"author,omitempty"`
	Published  *time.Time `json:"published,omitempty"`
	Image      string     `json:"image,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	Categories []string   `json:"-"` // filter input only
}

// Job configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled  bool `yaml:"enabled"`
	MaxItems int  `yaml:"max_items"`
	Timeout  int  `yaml:"timeout"` // seconds
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
