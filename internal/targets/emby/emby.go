// Package emby reads and tags series in an Emby media library over its REST API.
package emby

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ellisd4/tagsync/internal/transport"
	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/logging"
)

// ServiceName identifies Emby in errors and logs.
const ServiceName = "emby"

// Config holds the connection settings.
type Config struct {
	URL    string
	APIKey string

	// PageSize is the number of series requested per page.
	PageSize int

	// QueryAuth sends the key as the api_key query parameter instead of
	// the X-Emby-Token header, for reverse proxies that strip headers.
	QueryAuth bool

	Timeout time.Duration
}

// Client implements catalogs.Target, catalogs.Pinger and catalogs.Validator.
type Client struct {
	config    Config
	transport *transport.Client
}

var (
	_ catalogs.Target    = (*Client)(nil)
	_ catalogs.Pinger    = (*Client)(nil)
	_ catalogs.Validator = (*Client)(nil)
)

// New creates an Emby client.
func New(cfg Config, opts ...transport.Option) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = constants.DefaultPageSize
	}
	if cfg.PageSize > constants.MaxPageSize {
		cfg.PageSize = constants.MaxPageSize
	}
	if cfg.Timeout > 0 {
		opts = append([]transport.Option{transport.WithTimeout(cfg.Timeout)}, opts...)
	}

	var auth transport.Authenticator = &transport.HeaderAuth{Header: "X-Emby-Token"}
	if cfg.QueryAuth {
		auth = &transport.QueryAuth{Param: "api_key"}
	}

	return &Client{
		config:    cfg,
		transport: transport.New(ServiceName, strings.TrimSpace(cfg.URL), cfg.APIKey, auth, opts...),
	}
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

// updateFields are requested before an update so the posted body does not
// blank metadata the server would otherwise omit.
const updateFields = "ProviderIds,Tags,Genres,Studios,People,Overview,SortName,DateCreated," +
	"PremiereDate,ProductionYear,OfficialRating,CommunityRating,LockedFields,LockData"

// item is the subset of BaseItemDto tagsync reads.
type item struct {
	ID          string            `json:"Id"`
	Name        string            `json:"Name"`
	ProviderIDs map[string]string `json:"ProviderIds"`
	Tags        []string          `json:"Tags"`
	TagItems    []nameID          `json:"TagItems"`
}

type nameID struct {
	Name string `json:"Name"`
	ID   any    `json:"Id,omitempty"`
}

type itemsPage struct {
	Items            []item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
}

type publicInfo struct {
	Version    string `json:"Version"`
	ServerName string `json:"ServerName"`
}

// FetchItems implements catalogs.Target. It pages through every series in
// the library.
func (c *Client) FetchItems(ctx context.Context) ([]catalogs.TargetItem, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var out []catalogs.TargetItem
	for start := 0; ; {
		query := url.Values{
			"Recursive":        {"true"},
			"IncludeItemTypes": {"Series"},
			"Fields":           {"ProviderIds,Tags"},
			"StartIndex":       {strconv.Itoa(start)},
			"Limit":            {strconv.Itoa(c.config.PageSize)},
		}
		var page itemsPage
		if err := c.transport.GetJSON(ctx, "Items", query, &page); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.WrapCanceled(ctxErr)
			}
			return nil, errors.WrapCatalog(ServiceName, "fetch items", err)
		}
		for _, it := range page.Items {
			out = append(out, it.target())
		}
		start += len(page.Items)
		if len(page.Items) == 0 || start >= page.TotalRecordCount {
			break
		}
	}

	logging.FromContext(ctx).Debug().Int("items", len(out)).Msg("Fetched Emby series")
	return out, nil
}

// Ping implements catalogs.Pinger.
func (c *Client) Ping(ctx context.Context) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	var info publicInfo
	if err := c.transport.GetJSON(ctx, "System/Info/Public", nil, &info); err != nil {
		return "", errors.WrapCatalog(ServiceName, "ping", err)
	}
	return info.Version, nil
}

// AddTag implements catalogs.Mutator.
func (c *Client) AddTag(ctx context.Context, itemID, label string) error {
	return c.update(ctx, itemID, func(tags []string) ([]string, bool) {
		for _, t := range tags {
			if catalogs.EqualFold(t, label) {
				return tags, false
			}
		}
		return append(tags, label), true
	})
}

// RemoveTag implements catalogs.Mutator.
func (c *Client) RemoveTag(ctx context.Context, itemID, label string) error {
	return c.update(ctx, itemID, func(tags []string) ([]string, bool) {
		kept := tags[:0:0]
		for _, t := range tags {
			if !catalogs.EqualFold(t, label) {
				kept = append(kept, t)
			}
		}
		return kept, len(kept) != len(tags)
	})
}

// update reads the full item, rewrites its tags with edit and posts it back.
// Nothing is posted when edit reports no change.
func (c *Client) update(ctx context.Context, itemID string, edit func([]string) ([]string, bool)) error {
	raw, err := c.rawItem(ctx, itemID)
	if err != nil {
		return err
	}

	tags, changed := edit(rawTags(raw))
	if !changed {
		return nil
	}

	raw["Tags"] = tags
	tagItems := make([]map[string]any, 0, len(tags))
	for _, t := range tags {
		tagItems = append(tagItems, map[string]any{"Name": t})
	}
	raw["TagItems"] = tagItems

	if err := c.transport.PostJSON(ctx, "Items/"+url.PathEscape(itemID), nil, raw, nil); err != nil {
		if transport.StatusCode(err) == http.StatusNotFound {
			return errors.NewNotFoundError("item", itemID)
		}
		return err
	}
	return nil
}

func (c *Client) rawItem(ctx context.Context, itemID string) (map[string]any, error) {
	query := url.Values{
		"Ids":    {itemID},
		"Fields": {updateFields},
	}
	var page struct {
		Items []map[string]any `json:"Items"`
	}
	if err := c.transport.GetJSON(ctx, "Items", query, &page); err != nil {
		if transport.StatusCode(err) == http.StatusNotFound {
			return nil, errors.NewNotFoundError("item", itemID)
		}
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, errors.NewNotFoundError("item", itemID)
	}
	return page.Items[0], nil
}

func rawTags(raw map[string]any) []string {
	list, _ := raw["Tags"].([]any)
	tags := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			tags = append(tags, s)
		}
	}
	if len(tags) == 0 {
		items, _ := raw["TagItems"].([]any)
		for _, v := range items {
			if m, ok := v.(map[string]any); ok {
				if s, ok := m["Name"].(string); ok {
					tags = append(tags, s)
				}
			}
		}
	}
	return tags
}

func (it item) target() catalogs.TargetItem {
	ids := make(catalogs.ExternalIDs, len(it.ProviderIDs))
	for scheme, value := range it.ProviderIDs {
		ids[catalogs.Scheme(scheme).Normalize()] = value
	}
	tags := it.Tags
	if len(tags) == 0 {
		for _, ti := range it.TagItems {
			tags = append(tags, ti.Name)
		}
	}
	return catalogs.TargetItem{
		ID:          it.ID,
		Name:        it.Name,
		ExternalIDs: ids,
		Tags:        tags,
	}
}
