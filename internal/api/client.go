// Package api implements the client for the Extraviados MX listing API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/midir99/backupmpps/internal/domain"
	"github.com/midir99/backupmpps/internal/observability"
)

const listingPath = "/api/v1/records/"

// Client retrieves missing-person-poster records from the listing API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     observability.Logger
	metrics    observability.Metrics
}

// NewClient creates a listing API client. baseURL is the endpoint root,
// e.g. "https://extraviados.mx".
func NewClient(baseURL string, timeout time.Duration, logger observability.Logger, metrics observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "backupmpps/1.0",
		logger:     logger,
		metrics:    metrics,
	}
}

// listingPage is the wire shape of one page of the paginated listing
// endpoint. Next is an opaque locator for the following page, null on the
// last one.
type listingPage struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  []apiRecord `json:"results"`
}

// FetchRecords retrieves every record whose updated_at falls inside the
// given window, following the listing's pagination until exhausted. Any
// failure aborts the whole fetch; no partial result is returned.
func (c *Client) FetchRecords(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Record, error) {
	c.metrics.StartOperation("fetch")
	defer c.metrics.EndOperation("fetch")
	start := time.Now()
	defer func() {
		c.metrics.RecordDuration("fetch", time.Since(start).Seconds())
	}()

	query := url.Values{}
	query.Set("updated_at_after", windowStart.Format("2006-01-02"))
	query.Set("updated_at_before", windowEnd.Format("2006-01-02"))
	pageURL := c.baseURL + listingPath + "?" + query.Encode()

	var records []domain.Record
	pages := 0
	for {
		page, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			c.metrics.RecordError("fetch", "data_source")
			return nil, err
		}
		pages++
		for i := range page.Results {
			record, err := page.Results[i].toDomain()
			if err != nil {
				c.metrics.RecordError("fetch", "data_source")
				return nil, err
			}
			records = append(records, record)
		}
		c.logger.Debug(ctx, "listing page retrieved", observability.Fields{
			"url":     pageURL,
			"results": len(page.Results),
			"count":   page.Count,
		})
		if page.Next == nil {
			break
		}
		pageURL = *page.Next
	}

	c.metrics.RecordSuccess("fetch")
	c.logger.Info(ctx, "records retrieved", observability.Fields{
		"records": len(records),
		"pages":   pages,
	})
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*listingPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, domain.E(domain.CodeDataSource, fmt.Sprintf("failed to create request for %s", pageURL), err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.E(domain.CodeDataSource, fmt.Sprintf("request to %s failed", pageURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Ef(domain.CodeDataSource, "%s returned status %d", pageURL, resp.StatusCode)
	}

	var page listingPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, domain.E(domain.CodeDataSource, fmt.Sprintf("unable to parse JSON returned by %s", pageURL), err)
	}
	return &page, nil
}
