// Package companieshouse is a narrow client for the Companies House REST and
// document APIs. It supplies (bytes, encoding hint) pairs to the extraction
// core, which itself performs no I/O.
package companieshouse

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures the client.
type Options struct {
	APIKey          string
	BaseURL         string
	DocumentBaseURL string
	RatePerSec      float64
	Timeout         time.Duration
	MaxRetries      int
}

// Client talks to the Companies House APIs with basic-auth and a shared
// rate limiter. The public API allows 600 requests per 5 minutes.
type Client struct {
	httpClient *http.Client
	opts       Options
	limiter    *rate.Limiter
}

// Filing is one filing-history entry, trimmed to what accounts extraction
// needs.
type Filing struct {
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	Links         struct {
		DocumentMetadata string `json:"document_metadata"`
	} `json:"links"`
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.companieshouse.gov.uk"
	}
	if opts.DocumentBaseURL == "" {
		opts.DocumentBaseURL = "https://frontend-doc-api.company-information.service.gov.uk"
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 10
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		limiter:    rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

// AccountsFilings returns the most recent accounts filings for a company.
func (c *Client) AccountsFilings(ctx context.Context, companyNumber string, count int) ([]Filing, error) {
	if count <= 0 {
		count = 5
	}
	url := c.opts.BaseURL + "/company/" + companyNumber + "/filing-history" +
		"?category=accounts&items_per_page=" + strconv.Itoa(count)

	body, _, err := c.get(ctx, url, "application/json")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var payload struct {
		Items []Filing `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "companieshouse: parse filing history")
	}
	return payload.Items, nil
}

// documentPreference orders content types by usefulness to the extraction
// core: inline XBRL first, PDF never.
var documentPreference = []string{"application/xhtml+xml", "application/xml", "text/html"}

// FetchDocument downloads the filed document behind a document-metadata link,
// preferring iXBRL content. Returns the raw bytes and the content type as an
// encoding hint, or (nil, "") when no tagged rendition exists.
func (c *Client) FetchDocument(ctx context.Context, documentMetadataURL string) ([]byte, string, error) {
	metaURL := documentMetadataURL
	if len(metaURL) > 0 && metaURL[0] == '/' {
		metaURL = c.opts.BaseURL + metaURL
	}

	body, _, err := c.get(ctx, metaURL, "application/json")
	if err != nil || body == nil {
		return nil, "", err
	}

	var meta struct {
		Resources map[string]json.RawMessage `json:"resources"`
		Links     struct {
			Document string `json:"document"`
		} `json:"links"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, "", eris.Wrap(err, "companieshouse: parse document metadata")
	}
	if meta.Links.Document == "" {
		return nil, "", nil
	}

	contentURL := meta.Links.Document
	if contentURL[0] == '/' {
		contentURL = c.opts.DocumentBaseURL + contentURL
	}

	for _, contentType := range documentPreference {
		if _, ok := meta.Resources[contentType]; !ok {
			continue
		}
		content, got, err := c.get(ctx, contentURL, contentType)
		if err != nil {
			return nil, "", err
		}
		if content != nil {
			return content, got, nil
		}
	}
	return nil, "", nil
}

// get performs a rate-limited GET with retries on 429 and 5xx. A 404 returns
// (nil, "", nil): missing documents are expected, not errors.
func (c *Client) get(ctx context.Context, url, accept string) ([]byte, string, error) {
	var lastErr error

	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", eris.Wrap(err, "companieshouse: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, "", eris.Wrap(err, "companieshouse: build request")
		}
		req.SetBasicAuth(c.opts.APIKey, "")
		req.Header.Set("Accept", accept)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.backoff(ctx, attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, "", nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = eris.Errorf("companieshouse: http %d from %s", resp.StatusCode, url)
			zap.L().Warn("companies house request retrying",
				zap.String("url", url),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		case resp.StatusCode != http.StatusOK:
			resp.Body.Close()
			return nil, "", eris.Errorf("companieshouse: http %d from %s", resp.StatusCode, url)
		}

		body, err := io.ReadAll(resp.Body)
		contentType := resp.Header.Get("Content-Type")
		resp.Body.Close()
		if err != nil {
			return nil, "", eris.Wrap(err, "companieshouse: read body")
		}
		return body, contentType, nil
	}

	return nil, "", eris.Wrap(lastErr, "companieshouse: retries exhausted")
}

// backoff sleeps 500ms, 1s, 2s... between retries, honoring cancellation.
func (c *Client) backoff(ctx context.Context, attempt int) {
	d := 500 * time.Millisecond << attempt
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
