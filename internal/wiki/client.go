// Package wiki fetches snake summaries from the Wikipedia API. The
// lookup is a two-stage fetch: resolve the name to a page ID via
// search, then fetch that page's extract, images and canonical URL.
// No retries, no caching.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// FallbackPageID is used when the search returns no results. It is the
// "Python (programming language)" page, which doubles as the bot's
// not-found joke.
const FallbackPageID = 23862

// DefaultExtractLimit caps the extract so the rendered embed stays
// under the platform's message size limit.
const DefaultExtractLimit = 1500

// mapPrefix marks image filenames that are range maps rather than
// photos of the snake itself.
const mapPrefix = "File:Map"

// imageDenylist holds substrings of known non-subject filenames that
// Wikipedia attaches to most articles.
var imageDenylist = []string{
	"Commons-logo",
	"Wiktionary-logo",
	"Wikispecies-logo",
	"Wikiquote-logo",
	"Red Pencil Icon",
	"Question book",
	"Symbol support vote",
	"OOjs UI icon",
	"Padlock",
	"Status_iucn",
	"Increase2.svg",
	"Decrease2.svg",
}

// Record is the display-ready result of a lookup. Incomplete marks a
// response that was missing required fields; callers must check it
// before rendering.
type Record struct {
	PageID     int
	Title      string
	URL        string
	Extract    string
	Images     []string
	Maps       []string
	Incomplete bool
}

// Config holds client construction options.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	ExtractLimit int
}

// Client talks to the Wikipedia action API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	extractLimit int
}

// NewClient creates a Client. A nil or partially-filled Config falls
// back to defaults.
func NewClient(cfg *Config) *Client {
	c := &Client{
		baseURL:      "https://en.wikipedia.org/w/api.php",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		extractLimit: DefaultExtractLimit,
	}
	if cfg != nil {
		if cfg.BaseURL != "" {
			c.baseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			c.httpClient = &http.Client{Timeout: cfg.Timeout}
		}
		if cfg.ExtractLimit > 0 {
			c.extractLimit = cfg.ExtractLimit
		}
	}
	return c
}

type searchResponse struct {
	Query struct {
		Search []struct {
			PageID int `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

type pageResponse struct {
	Query struct {
		Pages map[string]struct {
			PageID  int    `json:"pageid"`
			Title   string `json:"title"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
			Images  []struct {
				Title string `json:"title"`
			} `json:"images"`
		} `json:"pages"`
	} `json:"query"`
}

// Fetch looks up a snake by canonical name. Transport failures return
// an error; shape problems in an otherwise successful response degrade
// to an Incomplete record instead.
func (c *Client) Fetch(ctx context.Context, name string) (*Record, error) {
	pageID, err := c.searchPageID(ctx, name)
	if err != nil {
		return nil, err
	}

	record, err := c.fetchPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	if record.Incomplete {
		log.Warn().Str("name", name).Int("page_id", pageID).Msg("Wikipedia response missing required fields")
	}
	return record, nil
}

// searchPageID resolves a name to a page ID, falling back to
// FallbackPageID when the search comes back empty.
func (c *Client) searchPageID(ctx context.Context, name string) (int, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", name)
	params.Set("srlimit", "1")
	params.Set("utf8", "")

	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return 0, err
	}

	if len(resp.Query.Search) == 0 {
		log.Debug().Str("name", name).Msg("No search results, using fallback page")
		return FallbackPageID, nil
	}
	return resp.Query.Search[0].PageID, nil
}

// fetchPage fetches a page's extract, images and canonical URL.
func (c *Client) fetchPage(ctx context.Context, pageID int) (*Record, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("action", "query")
	params.Set("prop", "extracts|images|info")
	params.Set("exlimit", "max")
	params.Set("explaintext", "")
	params.Set("inprop", "url")
	params.Set("pageids", fmt.Sprintf("%d", pageID))

	var resp pageResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	record := &Record{PageID: pageID}
	page, ok := resp.Query.Pages[fmt.Sprintf("%d", pageID)]
	if !ok {
		record.Incomplete = true
		return record, nil
	}

	record.Title = page.Title
	record.URL = page.FullURL
	record.Extract = capExtract(page.Extract, c.extractLimit)

	titles := make([]string, 0, len(page.Images))
	for _, img := range page.Images {
		titles = append(titles, img.Title)
	}
	record.Images, record.Maps = partitionImages(titles)

	if record.Title == "" || record.Extract == "" || record.URL == "" {
		record.Incomplete = true
	}
	return record, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// partitionImages splits image titles into subject images and range
// maps, dropping denylisted filenames.
func partitionImages(titles []string) (images, maps []string) {
	for _, title := range titles {
		if strings.HasPrefix(title, mapPrefix) {
			maps = append(maps, title)
			continue
		}
		if denylisted(title) {
			continue
		}
		images = append(images, title)
	}
	return images, maps
}

func denylisted(title string) bool {
	for _, bad := range imageDenylist {
		if strings.Contains(title, bad) {
			return true
		}
	}
	return false
}

func capExtract(extract string, limit int) string {
	if limit <= 0 || len(extract) <= limit {
		return extract
	}
	// Back off to a rune boundary.
	for limit > 0 && !utf8.RuneStart(extract[limit]) {
		limit--
	}
	return extract[:limit]
}
