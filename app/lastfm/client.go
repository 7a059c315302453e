package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lysyi3m/site-sync/app/pipeline"
	"github.com/lysyi3m/site-sync/app/web"
)

type Snapshot struct {
	User      string    `json:"user"`
	Tracks    []Track   `json:"tracks"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Track struct {
	Name       string     `json:"name"`
	Artist     string     `json:"artist"`
	Album      string     `json:"album,omitempty"`
	URL        string     `json:"url"`
	Image      string     `json:"image,omitempty"`
	NowPlaying bool       `json:"nowPlaying"`
	PlayedAt   *time.Time `json:"playedAt,omitempty"`
}

// Client reads a user's recently played tracks.
type Client struct {
	http   *resty.Client
	apiKey string
}

func NewClient(http *resty.Client, baseURL, apiKey string) *Client {
	http.SetBaseURL(baseURL)
	return &Client{http: http, apiKey: apiKey}
}

type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

type recentTracksResponse struct {
	apiError
	RecentTracks struct {
		Track trackList `json:"track"`
	} `json:"recenttracks"`
}

type textField struct {
	Text string `json:"#text"`
}

type apiTrack struct {
	Name   string    `json:"name"`
	URL    string    `json:"url"`
	Artist textField `json:"artist"`
	Album  textField `json:"album"`
	Image  []struct {
		Size string `json:"size"`
		Text string `json:"#text"`
	} `json:"image"`
	Date *struct {
		UTS string `json:"uts"`
	} `json:"date"`
	Attr struct {
		NowPlaying string `json:"nowplaying"`
	} `json:"@attr"`
}

// trackList accepts the single object Last.fm returns when only one track
// matches.
type trackList []apiTrack

func (tl *trackList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '{' {
		var track apiTrack
		if err := json.Unmarshal(data, &track); err != nil {
			return err
		}
		*tl = trackList{track}
		return nil
	}

	var tracks []apiTrack
	if err := json.Unmarshal(data, &tracks); err != nil {
		return err
	}
	*tl = tracks
	return nil
}

var imageSizeRank = map[string]int{
	"small":      1,
	"medium":     2,
	"large":      3,
	"extralarge": 4,
	"mega":       5,
}

func (c *Client) RecentTracks(ctx context.Context, user string, limit int) (*Snapshot, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"method":  "user.getrecenttracks",
			"user":    user,
			"api_key": c.apiKey,
			"format":  "json",
			"limit":   strconv.Itoa(limit),
		}).
		Get("/")
	if err != nil {
		return nil, &pipeline.UpstreamError{Source: "lastfm", Err: fmt.Errorf("failed to fetch recent tracks: %w", err)}
	}

	var body recentTracksResponse
	decodeErr := json.Unmarshal(res.Body(), &body)

	if body.Code != 0 {
		return nil, &pipeline.UpstreamError{
			Source:     "lastfm",
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("API error %d: %s", body.Code, body.Message),
		}
	}

	if res.IsError() {
		return nil, &pipeline.UpstreamError{Source: "lastfm", StatusCode: res.StatusCode(), Err: web.StatusError(res)}
	}

	if decodeErr != nil {
		return nil, &pipeline.UpstreamError{Source: "lastfm", StatusCode: res.StatusCode(), Err: fmt.Errorf("failed to decode response: %w", decodeErr)}
	}

	tracks := make([]Track, 0, len(body.RecentTracks.Track))
	for _, t := range body.RecentTracks.Track {
		tracks = append(tracks, toTrack(t))
	}

	// A now-playing track comes on top of the requested limit.
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}

	return &Snapshot{User: user, Tracks: tracks}, nil
}

func toTrack(t apiTrack) Track {
	track := Track{
		Name:       strings.TrimSpace(t.Name),
		Artist:     strings.TrimSpace(t.Artist.Text),
		Album:      strings.TrimSpace(t.Album.Text),
		URL:        t.URL,
		NowPlaying: t.Attr.NowPlaying == "true",
	}

	bestRank := 0
	for _, image := range t.Image {
		if image.Text == "" {
			continue
		}
		if rank := imageSizeRank[image.Size]; rank >= bestRank {
			bestRank = rank
			track.Image = image.Text
		}
	}

	if t.Date != nil {
		if uts, err := strconv.ParseInt(t.Date.UTS, 10, 64); err == nil {
			playedAt := time.Unix(uts, 0).UTC()
			track.PlayedAt = &playedAt
		}
	}

	return track
}
