// Package sonarr reads series and tags from the Sonarr v3 API.
package sonarr

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ellisd4/tagsync/internal/transport"
	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/logging"
)

const (
	// ServiceName identifies Sonarr in errors and logs.
	ServiceName = "sonarr"

	apiSuffix = "/api/v3"
)

// Config holds the connection settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client implements catalogs.Source, catalogs.Pinger and catalogs.Validator.
type Client struct {
	config    Config
	transport *transport.Client
}

var (
	_ catalogs.Source    = (*Client)(nil)
	_ catalogs.Pinger    = (*Client)(nil)
	_ catalogs.Validator = (*Client)(nil)
)

// New creates a Sonarr client. Configuration problems are reported by
// Validate and by every request, never here.
func New(cfg Config, opts ...transport.Option) *Client {
	if cfg.Timeout > 0 {
		opts = append([]transport.Option{transport.WithTimeout(cfg.Timeout)}, opts...)
	}
	return &Client{
		config: cfg,
		transport: transport.New(
			ServiceName,
			NormalizeURL(cfg.URL)+apiSuffix,
			cfg.APIKey,
			&transport.HeaderAuth{Header: "X-Api-Key"},
			opts...,
		),
	}
}

// NormalizeURL trims trailing slashes and a trailing /api/v3 so users may
// paste either the web UI address or the API root.
func NormalizeURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if len(u) >= len(apiSuffix) && strings.EqualFold(u[len(u)-len(apiSuffix):], apiSuffix) {
		u = strings.TrimRight(u[:len(u)-len(apiSuffix)], "/")
	}
	return u
}

// Name implements catalogs.Named.
func (c *Client) Name() string { return ServiceName }

// Validate implements catalogs.Validator.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.config.URL) == "" {
		return errors.NewConfigError(ServiceName, "url", "must be set")
	}
	if strings.TrimSpace(c.config.APIKey) == "" {
		return errors.NewConfigError(ServiceName, "api_key", "must be set")
	}
	return nil
}

// series is the subset of Sonarr's series resource tagsync reads.
type series struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	TvdbID int64  `json:"tvdbId"`
	TmdbID int64  `json:"tmdbId"`
	ImdbID string `json:"imdbId"`
	Tags   []int  `json:"tags"`
}

type tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type systemStatus struct {
	Version string `json:"version"`
	Branch  string `json:"branch"`
}

// FetchRecords implements catalogs.Source.
func (c *Client) FetchRecords(ctx context.Context) ([]catalogs.SourceRecord, error) {
	var list []series
	if err := c.get(ctx, "series", &list); err != nil {
		return nil, err
	}

	records := make([]catalogs.SourceRecord, 0, len(list))
	for _, s := range list {
		records = append(records, s.record())
	}
	logging.FromContext(ctx).Debug().Int("series", len(records)).Msg("Fetched Sonarr series")
	return records, nil
}

// FetchTagDictionary implements catalogs.Source.
func (c *Client) FetchTagDictionary(ctx context.Context) (catalogs.TagDictionary, error) {
	var list []tag
	if err := c.get(ctx, "tag", &list); err != nil {
		return nil, err
	}

	defs := make([]catalogs.TagDefinition, 0, len(list))
	for _, t := range list {
		defs = append(defs, catalogs.TagDefinition{ID: t.ID, Label: t.Label})
	}
	logging.FromContext(ctx).Debug().Int("tags", len(defs)).Msg("Fetched Sonarr tags")
	return catalogs.NewTagDictionary(defs), nil
}

// Ping implements catalogs.Pinger using the system status endpoint.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var status systemStatus
	if err := c.get(ctx, "system/status", &status); err != nil {
		return "", err
	}
	return status.Version, nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	if err := c.Validate(); err != nil {
		return err
	}
	endpoint := apiSuffix + "/" + path
	if err := c.transport.GetJSON(ctx, path, nil, target); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.WrapCanceled(ctxErr)
		}
		return errors.WrapUpstream(ServiceName, endpoint, transport.StatusCode(err), err)
	}
	return nil
}

func (s series) record() catalogs.SourceRecord {
	ids := catalogs.ExternalIDs{}
	if v := catalogs.FormatNumericID(s.TvdbID); v != "" {
		ids[catalogs.SchemeTVDB] = v
	}
	if v := catalogs.FormatNumericID(s.TmdbID); v != "" {
		ids[catalogs.SchemeTMDB] = v
	}
	if !catalogs.IsAbsentID(s.ImdbID) {
		ids[catalogs.SchemeIMDB] = strings.TrimSpace(s.ImdbID)
	}
	return catalogs.SourceRecord{
		ID:          strconv.Itoa(s.ID),
		Title:       s.Title,
		ExternalIDs: ids,
		TagIDs:      s.Tags,
	}
}
