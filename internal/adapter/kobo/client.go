// Package kobo retrieves survey submissions from the KoboToolbox v2 REST API.
package kobo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
	"github.com/couchcryptid/survey-demand-etl/internal/observability"
)

// maxPages bounds pagination in case the server keeps returning a next link.
const maxPages = 10000

// Config holds the connection settings for one survey.
type Config struct {
	BaseURL   string // e.g. https://kobo.humanitarianresponse.info/api/v2
	SurveyKey string // asset uid of the form
	Token     string
	Timeout   time.Duration
	PageSize  int
}

// Client implements pipeline.Extractor against the KoboToolbox data endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a KoboToolbox client.
func NewClient(cfg Config, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	if cfg.SurveyKey == "" || cfg.Token == "" {
		return nil, errors.New("kobo: survey key and api token are required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Extract fetches every submission of the survey, following the API's
// pagination, in the order the server returns them.
func (c *Client) Extract(ctx context.Context) ([]domain.RawResponse, error) {
	next := c.firstPageURL()
	out := []domain.RawResponse{}

	for pages := 0; next != ""; pages++ {
		if pages >= maxPages {
			return nil, fmt.Errorf("kobo: more than %d pages", maxPages)
		}
		p, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Results...)

		if p.Next == next || len(p.Results) == 0 {
			break
		}
		next = p.Next
	}

	c.logger.Info("kobo submissions fetched", "survey", c.cfg.SurveyKey, "submissions", len(out))
	return out, nil
}

func (c *Client) firstPageURL() string {
	params := url.Values{
		"format": {"json"},
		"limit":  {strconv.Itoa(c.cfg.PageSize)},
	}
	return fmt.Sprintf("%s/assets/%s/data/?%s", c.cfg.BaseURL, url.PathEscape(c.cfg.SurveyKey), params.Encode())
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (page, error) {
	start := time.Now()
	p, err := c.doRequest(ctx, pageURL)
	c.metrics.KoboRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.KoboRequests.WithLabelValues("error").Inc()
		return page{}, err
	}
	c.metrics.KoboRequests.WithLabelValues("success").Inc()
	c.logger.Debug("kobo page fetched", "results", len(p.Results), "count", p.Count)
	return p, nil
}

func (c *Client) doRequest(ctx context.Context, pageURL string) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("kobo data request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return page{}, fmt.Errorf("kobo API error: status %d: %s", resp.StatusCode, body)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var p page
	if err := dec.Decode(&p); err != nil {
		return page{}, fmt.Errorf("decode response: %w", err)
	}
	return p, nil
}

// KoboToolbox API response types.

type page struct {
	Count    int                  `json:"count"`
	Next     string               `json:"next"`
	Previous string               `json:"previous"`
	Results  []domain.RawResponse `json:"results"`
}
