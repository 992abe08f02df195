// Package feed fetches the operator's disruption feed and parses its raw
// records into validated disruption records. Scraping the operator's page
// into this feed format is somebody else's job; linewatch consumes the
// published listing as-is.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhrabal/linewatch/internal/model"
)

// RawRecord is one disruption listing as published by the feed,
// pre-validation.
type RawRecord struct {
	ID        string     `json:"id"`
	Active    bool       `json:"active"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Lines     []string   `json:"lines"`
	Message   string     `json:"message"`
	URL       string     `json:"url"`
}

type Client struct {
	http *resty.Client
	url  string
}

func NewClient(feedURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().SetTimeout(timeout),
		url:  feedURL,
	}
}

// Fetch downloads the current feed. It returns the decoded records together
// with the raw payload so the caller can hand the payload to the archival
// hook. Any whole-feed failure (transport, bad status, undecodable body) is
// fatal to the run.
func (c *Client) Fetch(ctx context.Context) ([]RawRecord, []byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch feed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode())
	}

	body := resp.Body()
	var records []RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, nil, fmt.Errorf("decode feed: %w", err)
	}
	return records, body, nil
}

// Parse validates one raw record into a canonical disruption record.
// Returns model.ErrInvalidRecord (wrapped) when the id or the line set is
// missing; callers skip such records and keep going.
func Parse(raw RawRecord) (model.Disruption, error) {
	d := model.Disruption{
		ID:        raw.ID,
		Active:    raw.Active,
		StartTime: raw.StartTime,
		EndTime:   raw.EndTime,
		Lines:     model.NormalizeLines(raw.Lines),
		Message:   raw.Message,
		URL:       raw.URL,
	}
	if err := d.Validate(); err != nil {
		return model.Disruption{}, err
	}
	return d, nil
}
