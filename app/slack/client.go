package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/lysyi3m/site-sync/app/pipeline"
	"github.com/lysyi3m/site-sync/app/web"
)

const sourceName = "slack"

// Client reads channel history through the Slack Web API.
type Client struct {
	http *resty.Client
}

var _ pipeline.Source = (*Client)(nil)

func NewClient(http *resty.Client, baseURL, token string) *Client {
	http.SetBaseURL(baseURL)
	http.SetAuthToken(token)
	return &Client{http: http}
}

type historyResponse struct {
	OK       bool      `json:"ok"`
	Error    string    `json:"error"`
	Messages []message `json:"messages"`
}

type message struct {
	Type     string    `json:"type"`
	Subtype  string    `json:"subtype"`
	Text     string    `json:"text"`
	TS       timestamp `json:"ts"`
	ThreadTS timestamp `json:"thread_ts"`
	BotID    string    `json:"bot_id"`
	User     string    `json:"user"`
}

// timestamp accepts Slack's "1700000000.000100" strings as well as bare numbers.
type timestamp string

func (t *timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = timestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	*t = timestamp(n.String())
	return nil
}

// FetchMessages returns the latest messages of channelID in the order Slack
// returns them (newest first).
func (c *Client) FetchMessages(ctx context.Context, channelID string, limit int) ([]pipeline.RawMessage, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"channel": channelID,
			"limit":   strconv.Itoa(limit),
		}).
		Get("/conversations.history")
	if err != nil {
		return nil, &pipeline.UpstreamError{Source: sourceName, Err: err}
	}

	if res.IsError() {
		return nil, &pipeline.UpstreamError{Source: sourceName, StatusCode: res.StatusCode(), Err: web.StatusError(res)}
	}

	var body historyResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return nil, &pipeline.UpstreamError{Source: sourceName, Err: fmt.Errorf("malformed response: %w", err)}
	}

	if !body.OK {
		return nil, &pipeline.UpstreamError{Source: sourceName, Err: fmt.Errorf("api error: %s", body.Error)}
	}

	messages := make([]pipeline.RawMessage, 0, len(body.Messages))
	for _, m := range body.Messages {
		messages = append(messages, toRawMessage(m))
	}

	return messages, nil
}

func toRawMessage(m message) pipeline.RawMessage {
	return pipeline.RawMessage{
		Text:      m.Text,
		Timestamp: string(m.TS),
		IsBot:     m.BotID != "" || m.Subtype == "bot_message",
		HasThread: m.ThreadTS != "" && m.ThreadTS != m.TS,
		Subtype:   m.Subtype,
	}
}
