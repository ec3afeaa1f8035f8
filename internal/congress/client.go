package congress

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

	"github.com/DeafMist/amendment-radar/internal/models"
)

// ListLimit is the page size requested from the bill list endpoint.
const ListLimit = 250

// BillType is a chamber-specific resolution type as used in upstream paths.
type BillType string

const (
	HouseJointResolution  BillType = "hjres"
	SenateJointResolution BillType = "sjres"
)

// JointResolutionTypes lists the types scanned for amendment proposals.
var JointResolutionTypes = []BillType{HouseJointResolution, SenateJointResolution}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("congress api %s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("congress api %s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

// IsStatus reports whether err carries the given upstream status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Client talks to the Congress.gov v3 API.
type Client struct {
	http     *http.Client
	base     *url.URL
	apiKey   string
	congress int
	log      *slog.Logger
}

// New instantiates a client. A zero timeout leaves outbound calls unbounded
// apart from the caller's context.
func New(baseURL, apiKey string, congress int, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse congress api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("congress api base url %q must be absolute", baseURL)
	}
	if congress <= 0 {
		return nil, fmt.Errorf("congress number must be positive, got %d", congress)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		http:     &http.Client{Timeout: timeout},
		base:     base,
		apiKey:   apiKey,
		congress: congress,
		log:      logger,
	}, nil
}

// Congress returns the session number every query is scoped to.
func (c *Client) Congress() int {
	return c.congress
}

// ListBills fetches up to ListLimit bill summaries of one type.
func (c *Client) ListBills(ctx context.Context, billType BillType) ([]models.BillSummary, error) {
	endpoint := c.endpoint(url.Values{"limit": {strconv.Itoa(ListLimit)}},
		"bill", strconv.Itoa(c.congress), string(billType))

	var parsed struct {
		Bills []models.BillSummary `json:"bills"`
	}
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, fmt.Errorf("list %s bills: %w", billType, err)
	}

	if parsed.Bills == nil {
		return []models.BillSummary{}, nil
	}
	return parsed.Bills, nil
}

// BillDetail follows a summary's self-referential URL with the credential added.
func (c *Client) BillDetail(ctx context.Context, detailURL string) (*models.BillDetail, error) {
	if strings.TrimSpace(detailURL) == "" {
		return nil, errors.New("bill detail: empty url")
	}
	u, err := url.Parse(detailURL)
	if err != nil {
		return nil, fmt.Errorf("bill detail: parse url: %w", err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	var parsed struct {
		Bill *models.BillDetail `json:"bill"`
	}
	if err := c.getJSON(ctx, u, &parsed); err != nil {
		return nil, fmt.Errorf("bill detail: %w", err)
	}
	if parsed.Bill == nil {
		return nil, fmt.Errorf("bill detail %s: response has no bill", u.Path)
	}
	return parsed.Bill, nil
}

// CosponsorCount returns the number of cosponsors listed for a bill. Only
// the first ListLimit entries are counted.
func (c *Client) CosponsorCount(ctx context.Context, billType, number string) (int, error) {
	endpoint := c.endpoint(url.Values{"limit": {strconv.Itoa(ListLimit)}},
		"bill", strconv.Itoa(c.congress), strings.ToLower(billType), number, "cosponsors")

	var parsed struct {
		Cosponsors []json.RawMessage `json:"cosponsors"`
	}
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return 0, fmt.Errorf("cosponsors %s %s: %w", billType, number, err)
	}
	return len(parsed.Cosponsors), nil
}

func (c *Client) endpoint(params url.Values, segments ...string) *url.URL {
	u := *c.base
	for _, s := range segments {
		u.Path += "/" + url.PathEscape(s)
	}
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	u.RawQuery = q.Encode()
	return &u
}

func (c *Client) getJSON(ctx context.Context, u *url.URL, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		// url.Error embeds the full URL, including the credential.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return fmt.Errorf("GET %s: %w", u.Path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &StatusError{StatusCode: res.StatusCode, Path: u.Path, Body: strings.TrimSpace(string(data))}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u.Path, err)
	}

	c.log.Debug("congress api call", slog.String("path", u.Path), slog.Int("status", res.StatusCode))
	return nil
}
