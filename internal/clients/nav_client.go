package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"fund-analytics-api/internal/config"
	"fund-analytics-api/internal/models"
)

// navDateLayout is the date format the upstream NAV provider uses
const navDateLayout = "02-01-2006"

// NAVClient fetches scheme metadata and NAV history from the upstream
// provider. Requests are rate limited to stay inside the provider's
// fair-use policy.
type NAVClient struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	limiter    *rate.Limiter
}

// NewNAVClient creates a NAV client from configuration
func NewNAVClient(cfg config.NAVSourceConfig) *NAVClient {
	rps := rate.Limit(float64(cfg.RateLimit) / 60.0)
	if cfg.RateLimit <= 0 {
		rps = rate.Inf
	}

	return &NAVClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retries:    cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		limiter:    rate.NewLimiter(rps, 5),
	}
}

// SchemeMeta is the fund identity block the provider returns
type SchemeMeta struct {
	SchemeCode string `json:"scheme_code"`
	SchemeName string `json:"scheme_name"`
	FundHouse  string `json:"fund_house"`
	Category   string `json:"scheme_category"`
}

// SchemeData is a scheme's metadata with its full NAV history, oldest
// observation first
type SchemeData struct {
	Meta SchemeMeta
	NAVs []models.NAVPoint
}

// schemeResponse mirrors the provider's wire format: NAV values and
// dates arrive as strings, newest first
type schemeResponse struct {
	Meta struct {
		SchemeCode json.Number `json:"scheme_code"`
		SchemeName string      `json:"scheme_name"`
		FundHouse  string      `json:"fund_house"`
		Category   string      `json:"scheme_category"`
	} `json:"meta"`
	Data []struct {
		Date string `json:"date"`
		NAV  string `json:"nav"`
	} `json:"data"`
	Status string `json:"status"`
}

// FetchScheme retrieves a scheme's metadata and NAV history
func (nc *NAVClient) FetchScheme(ctx context.Context, schemeCode string) (*SchemeData, error) {
	url := fmt.Sprintf("%s/mf/%s", nc.baseURL, schemeCode)

	var response schemeResponse
	if err := nc.makeRequest(ctx, url, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch scheme %s: %w", schemeCode, err)
	}

	data := &SchemeData{
		Meta: SchemeMeta{
			SchemeCode: response.Meta.SchemeCode.String(),
			SchemeName: response.Meta.SchemeName,
			FundHouse:  response.Meta.FundHouse,
			Category:   response.Meta.Category,
		},
	}

	data.NAVs = make([]models.NAVPoint, 0, len(response.Data))
	for _, entry := range response.Data {
		date, err := time.Parse(navDateLayout, entry.Date)
		if err != nil {
			continue
		}
		nav, err := strconv.ParseFloat(entry.NAV, 64)
		if err != nil || nav <= 0 {
			continue
		}
		data.NAVs = append(data.NAVs, models.NAVPoint{Date: date, NAV: nav})
	}

	sort.Slice(data.NAVs, func(i, j int) bool {
		return data.NAVs[i].Date.Before(data.NAVs[j].Date)
	})

	return data, nil
}

// FetchLatestNAV retrieves only the most recent observation for a scheme
func (nc *NAVClient) FetchLatestNAV(ctx context.Context, schemeCode string) (*models.NAVPoint, error) {
	url := fmt.Sprintf("%s/mf/%s/latest", nc.baseURL, schemeCode)

	var response schemeResponse
	if err := nc.makeRequest(ctx, url, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch latest NAV for %s: %w", schemeCode, err)
	}

	if len(response.Data) == 0 {
		return nil, fmt.Errorf("no NAV data for scheme %s", schemeCode)
	}

	date, err := time.Parse(navDateLayout, response.Data[0].Date)
	if err != nil {
		return nil, fmt.Errorf("malformed NAV date %q: %w", response.Data[0].Date, err)
	}
	nav, err := strconv.ParseFloat(response.Data[0].NAV, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed NAV value %q: %w", response.Data[0].NAV, err)
	}

	return &models.NAVPoint{Date: date, NAV: nav}, nil
}

// makeRequest performs an HTTP GET with rate limiting and retry
func (nc *NAVClient) makeRequest(ctx context.Context, url string, response interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= nc.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * nc.retryDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := nc.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "Fund-Analytics-API/1.0")

		resp, err := nc.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("rate limited by provider")
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: request failed", resp.StatusCode)
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(response)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to decode response: %w", err)
			continue
		}

		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", nc.retries+1, lastErr)
}

// IsHealthy checks if the NAV provider is reachable
func (nc *NAVClient) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, nc.baseURL+"/mf", nil)
	if err != nil {
		return false
	}

	resp, err := nc.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
