package debrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"magnet-cast/internal/domain"
)

const DefaultBaseURL = "https://api.real-debrid.com/rest/1.0"

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// RateLimit is requests per second; zero disables limiting.
	RateLimit  float64
	Burst      int
	HTTPClient *http.Client
}

// RealDebrid implements Gateway against the Real-Debrid REST API.
type RealDebrid struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewRealDebrid(cfg Config) *RealDebrid {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return &RealDebrid{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      strings.TrimSpace(cfg.Token),
		httpClient: client,
		limiter:    limiter,
	}
}

func (c *RealDebrid) AddMagnet(ctx context.Context, magnet string) (string, error) {
	form := url.Values{}
	form.Set("magnet", magnet)

	var result struct {
		ID  string `json:"id"`
		URI string `json:"uri"`
	}
	if err := c.do(ctx, http.MethodPost, "/torrents/addMagnet", nil, form, &result); err != nil {
		return "", fmt.Errorf("add magnet: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("add magnet: provider returned no torrent id")
	}
	return result.ID, nil
}

func (c *RealDebrid) TorrentInfo(ctx context.Context, id string) (*domain.Torrent, error) {
	var info rdTorrentInfo
	if err := c.do(ctx, http.MethodGet, "/torrents/info/"+url.PathEscape(id), nil, nil, &info); err != nil {
		return nil, fmt.Errorf("get torrent info: %w", err)
	}
	return info.toDomain(), nil
}

func (c *RealDebrid) SelectFiles(ctx context.Context, id string, fileIDs ...int) error {
	ids := make([]string, len(fileIDs))
	for i, fid := range fileIDs {
		ids[i] = strconv.Itoa(fid)
	}
	selection := strings.Join(ids, ",")
	if selection == "" {
		selection = "all"
	}
	form := url.Values{}
	form.Set("files", selection)

	if err := c.do(ctx, http.MethodPost, "/torrents/selectFiles/"+url.PathEscape(id), nil, form, nil); err != nil {
		return fmt.Errorf("select files: %w", err)
	}
	return nil
}

func (c *RealDebrid) UnrestrictLink(ctx context.Context, link, ipHint string) (*domain.Download, error) {
	form := url.Values{}
	form.Set("link", link)
	if ipHint != "" {
		form.Set("ip", ipHint)
	}

	var dl rdDownload
	if err := c.do(ctx, http.MethodPost, "/unrestrict/link", nil, form, &dl); err != nil {
		return nil, fmt.Errorf("unrestrict link: %w", err)
	}
	if dl.Download == "" {
		return nil, fmt.Errorf("unrestrict link: provider returned no download url")
	}
	out := dl.toDomain()
	if out.Link == "" {
		out.Link = link
	}
	return &out, nil
}

func (c *RealDebrid) DeleteTorrent(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/torrents/delete/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete torrent: %w", err)
	}
	return nil
}

func (c *RealDebrid) RecentDownloads(ctx context.Context, limit int) ([]domain.Download, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var raw []rdDownload
	if err := c.do(ctx, http.MethodGet, "/downloads", query, nil, &raw); err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	downloads := make([]domain.Download, 0, len(raw))
	for _, d := range raw {
		downloads = append(downloads, d.toDomain())
	}
	return downloads, nil
}

func (c *RealDebrid) do(ctx context.Context, method, path string, query, form url.Values, out any) error {
	if c.token == "" {
		return fmt.Errorf("real-debrid access token not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var payload struct {
		Error     string `json:"error"`
		ErrorCode int    `json:"error_code"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Code = payload.ErrorCode
		return apiErr
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(status)
	}
	apiErr.Message = msg
	return apiErr
}

var _ Gateway = (*RealDebrid)(nil)
