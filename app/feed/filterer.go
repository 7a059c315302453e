package feed

import (
	"strings"
)

var filterFields = map[string]bool{
	"title":      true,
	"summary":    true,
	"author":     true,
	"link":       true,
	"categories": true,
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops items rejected by the job's filters and returns the rest in
// their original order together with the number dropped.
func (f *Filterer) Run(items []SnapshotItem, config *Config) ([]SnapshotItem, int) {
	if len(config.Filters) == 0 {
		return items, 0
	}

	kept := make([]SnapshotItem, 0, len(items))
	for _, item := range items {
		if f.rejected(item, config.Filters) {
			continue
		}
		kept = append(kept, item)
	}

	return kept, len(items) - len(kept)
}

func (f *Filterer) rejected(item SnapshotItem, filters []ConfigFilter) bool {
	for _, filter := range filters {
		value := f.getFieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true
			}
		}
	}

	return false
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(item SnapshotItem, field string) string {
	switch field {
	case "title":
		return item.Title
	case "summary":
		return item.Summary
	case "author":
		return item.Author
	case "link":
		return item.Link
	case "categories":
		return strings.Join(item.Categories, " ")
	default:
		return ""
	}
}
