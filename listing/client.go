// Package listing fetches the site's read-only directory views: riders,
// blog posts, and sponsors. It speaks the same HTTP+JSON conventions as
// the identity package and shares its failure split: structured
// rejections surface as [*identity.APIError], everything else wraps
// [identity.ErrUnreachable].
package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ridersclub/clubauth/identity"
)

// Rider is a published club member profile.
type Rider struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Bike     string `json:"bike"`
	Chapter  string `json:"chapter"`
	Category string `json:"category"`
}

// Blog is a published post summary.
type Blog struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"published_at"`
	Excerpt     string    `json:"excerpt"`
}

// Sponsor is a club sponsor entry.
type Sponsor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Tier     string `json:"tier"`
	Category string `json:"category"`
	SiteURL  string `json:"site_url"`
}

// Options filter and page a listing request. Zero values mean "no
// filter" and the service's default page size.
type Options struct {
	Category string
	Page     int
	PerPage  int
}

// Page is the listed records plus the service-reported total, for
// pagination controls.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Client fetches listings from the service rooted at a base URL.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a listing client. A nil httpClient falls back to
// [http.DefaultClient].
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: httpClient,
	}
}

// Riders lists published rider profiles.
func (c *Client) Riders(ctx context.Context, opts Options) (Page[Rider], error) {
	return get[Rider](ctx, c, "/riders", opts)
}

// Blogs lists published posts.
func (c *Client) Blogs(ctx context.Context, opts Options) (Page[Blog], error) {
	return get[Blog](ctx, c, "/blogs", opts)
}

// Sponsors lists club sponsors.
func (c *Client) Sponsors(ctx context.Context, opts Options) (Page[Sponsor], error) {
	return get[Sponsor](ctx, c, "/sponsors", opts)
}

func get[T any](ctx context.Context, c *Client, path string, opts Options) (Page[T], error) {
	var page Page[T]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+query(opts), nil)
	if err != nil {
		return page, fmt.Errorf("build %s request: %w", path, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return page, ctx.Err()
		}
		return page, fmt.Errorf("%w: %v", identity.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Code == "" {
			return page, fmt.Errorf("%w: status %d without structured error", identity.ErrUnreachable, resp.StatusCode)
		}
		return page, &identity.APIError{Status: resp.StatusCode, Code: payload.Code, Message: payload.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return page, fmt.Errorf("%w: malformed listing body: %v", identity.ErrUnreachable, err)
	}
	return page, nil
}

func query(opts Options) string {
	q := url.Values{}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
