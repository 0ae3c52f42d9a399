package smartsheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	apperrors "somacli/internal/errors"
)

// Client is a minimal Smartsheet REST API client. It covers the three
// operations the analysis pipeline needs: listing sheets, fetching a
// sheet by ID and fetching a sheet by name. Requests are rate limited
// client-side; the service enforces 300 requests per minute.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit overrides the client-side request rate (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates a Smartsheet client. The access token must be
// non-empty; a missing token is a configuration error caught before
// any request is made.
func NewClient(baseURL, accessToken string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if accessToken == "" {
		return nil, apperrors.NewConfigError("access token is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:    baseURL,
		token:      accessToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(4), 1),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListSheets returns all sheets visible to the token, following the
// service's pagination.
func (c *Client) ListSheets(ctx context.Context) ([]SheetInfo, error) {
	c.logger.InfoContext(ctx, "retrieving list of available sheets")

	var sheets []SheetInfo
	page := 1
	for {
		var resp listSheetsResponse
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		if err := c.get(ctx, "/sheets", query, &resp); err != nil {
			return nil, err
		}
		sheets = append(sheets, resp.Data...)

		if resp.TotalPages == 0 || page >= resp.TotalPages {
			break
		}
		page++
	}

	c.logger.InfoContext(ctx, "found available sheets", slog.Int("sheet_count", len(sheets)))
	return sheets, nil
}

// GetSheet fetches a full sheet, columns and rows included, by ID.
func (c *Client) GetSheet(ctx context.Context, sheetID int64) (*Sheet, error) {
	c.logger.InfoContext(ctx, "retrieving sheet", slog.Int64("sheet_id", sheetID))

	var sheet Sheet
	if err := c.get(ctx, fmt.Sprintf("/sheets/%d", sheetID), nil, &sheet); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "retrieved sheet",
		slog.String("sheet_name", sheet.Name),
		slog.Int("row_count", len(sheet.Rows)),
		slog.Int("column_count", len(sheet.Columns)))
	return &sheet, nil
}

// GetSheetByName lists sheets and fetches the first one whose name
// matches exactly.
func (c *Client) GetSheetByName(ctx context.Context, name string) (*Sheet, error) {
	sheets, err := c.ListSheets(ctx)
	if err != nil {
		return nil, err
	}

	for _, info := range sheets {
		if info.Name == name {
			return c.GetSheet(ctx, info.ID)
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("sheet %q", name))
}

// get performs a rate-limited GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewNetworkError(fmt.Sprintf("request to %s failed", path), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewNetworkError(fmt.Sprintf("failed to read response from %s", path), err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var envelope apiErrorResponse
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Message != "" {
			apiErr.ErrorCode = envelope.ErrorCode
			apiErr.Message = envelope.Message
			apiErr.RefID = envelope.RefID
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewParsingError(fmt.Sprintf("failed to decode response from %s", path), err)
	}
	return nil
}
