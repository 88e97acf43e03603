// Package wbapi is the marketplace supplies API client. Every call sends
// the user's token verbatim in the Authorization header and is never
// retried.
package wbapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wbcoef/wbcoef/core/logger"
	"github.com/wbcoef/wbcoef/core/netutil"
	"github.com/wbcoef/wbcoef/internal/domain"
	"github.com/wbcoef/wbcoef/internal/metrics"
)

const (
	DefaultCommonBaseURL   = "https://common-api.wildberries.ru"
	DefaultSuppliesBaseURL = "https://supplies-api.wildberries.ru"

	pingPath         = "/ping"
	warehousesPath   = "/api/v1/warehouses"
	coefficientsPath = "/api/v1/acceptance/coefficients"

	// bodies kept for logs and errors are cut to this many bytes
	maxLoggedBody = 512
)

// Config points the client at the API hosts. Timeout is unset by default:
// requests run until the server answers or the caller's context ends.
type Config struct {
	CommonBaseURL   string        `yaml:"common_base_url" envconfig:"WB_COMMON_BASE_URL"`
	SuppliesBaseURL string        `yaml:"supplies_base_url" envconfig:"WB_SUPPLIES_BASE_URL"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"WB_TIMEOUT"`
}

// WithDefaults fills zero values.
func (c Config) WithDefaults() Config {
	if c.CommonBaseURL == "" {
		c.CommonBaseURL = DefaultCommonBaseURL
	}
	if c.SuppliesBaseURL == "" {
		c.SuppliesBaseURL = DefaultSuppliesBaseURL
	}
	c.CommonBaseURL = strings.TrimRight(c.CommonBaseURL, "/")
	c.SuppliesBaseURL = strings.TrimRight(c.SuppliesBaseURL, "/")
	return c
}

// Client is stateless apart from its connection pool and safe for
// concurrent use.
type Client struct {
	common   string
	supplies string
	http     *http.Client
}

// New returns a client for cfg.
func New(cfg Config) *Client {
	cfg = cfg.WithDefaults()
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = -1
	}
	return &Client{
		common:   cfg.CommonBaseURL,
		supplies: cfg.SuppliesBaseURL,
		http:     netutil.NewClient(netutil.ClientOptions{Timeout: timeout}),
	}
}

type pingResponse struct {
	TS     string `json:"TS"`
	Status string `json:"Status"`
}

// Ping reports whether token is accepted. A non-2xx answer is not an
// error, it yields false.
func (c *Client) Ping(ctx context.Context, token string) (bool, error) {
	const op = "wb.ping"
	status, body, err := c.get(ctx, op, c.common+pingPath, token)
	if err != nil {
		return false, err
	}
	if !ok2xx(status) {
		c.record(ctx, op, "rejected", status, body)
		return false, nil
	}
	var resp pingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.record(ctx, op, metrics.StatusError, status, body)
		return false, domain.E(domain.KindUpstreamUnavailable, op, err)
	}
	c.record(ctx, op, metrics.StatusOK, status, nil)
	return resp.Status == "OK", nil
}

// Warehouses lists the warehouse catalog.
func (c *Client) Warehouses(ctx context.Context, token string) ([]domain.Warehouse, error) {
	const op = "wb.warehouses"
	status, body, err := c.get(ctx, op, c.supplies+warehousesPath, token)
	if err != nil {
		return nil, err
	}
	if !ok2xx(status) {
		c.record(ctx, op, metrics.StatusError, status, body)
		return nil, domain.Upstream(op, status, cut(body))
	}
	var out []domain.Warehouse
	if err := json.Unmarshal(body, &out); err != nil {
		c.record(ctx, op, metrics.StatusError, status, body)
		return nil, domain.E(domain.KindUpstreamUnavailable, op, err)
	}
	c.record(ctx, op, metrics.StatusOK, status, nil)
	return out, nil
}

type coefficientDTO struct {
	Date          string  `json:"date"`
	Coefficient   int     `json:"coefficient"`
	WarehouseID   uint32  `json:"warehouseID"`
	WarehouseName string  `json:"warehouseName"`
	BoxTypeName   string  `json:"boxTypeName"`
	BoxTypeID     *uint32 `json:"boxTypeID"`
}

// Coefficients lists acceptance coefficients, optionally only for the
// given warehouses. A JSON null body fails with domain.ErrUpstreamEmpty.
func (c *Client) Coefficients(ctx context.Context, token string, warehouseIDs ...uint32) ([]domain.Coefficient, error) {
	const op = "wb.coefficients"
	u := c.supplies + coefficientsPath
	if len(warehouseIDs) > 0 {
		ids := make([]string, len(warehouseIDs))
		for i, id := range warehouseIDs {
			ids[i] = strconv.FormatUint(uint64(id), 10)
		}
		u += "?" + url.Values{"warehouseIDs": {strings.Join(ids, ",")}}.Encode()
	}

	status, body, err := c.get(ctx, op, u, token)
	if err != nil {
		return nil, err
	}
	if !ok2xx(status) {
		c.record(ctx, op, metrics.StatusError, status, body)
		return nil, domain.Upstream(op, status, cut(body))
	}

	var dtos []coefficientDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		c.record(ctx, op, metrics.StatusError, status, body)
		return nil, domain.E(domain.KindUpstreamUnavailable, op, err)
	}
	if dtos == nil {
		c.record(ctx, op, metrics.StatusEmpty, status, nil)
		return nil, domain.E(domain.KindUpstreamEmpty, op, nil)
	}

	out := make([]domain.Coefficient, 0, len(dtos))
	for _, d := range dtos {
		date, err := time.Parse(time.RFC3339, d.Date)
		if err != nil {
			c.record(ctx, op, metrics.StatusError, status, nil)
			return nil, domain.E(domain.KindUpstreamUnavailable, op, fmt.Errorf("date %q: %w", d.Date, err))
		}
		out = append(out, domain.Coefficient{
			Date:          date,
			Coefficient:   d.Coefficient,
			WarehouseID:   d.WarehouseID,
			WarehouseName: d.WarehouseName,
			BoxTypeName:   d.BoxTypeName,
			BoxTypeID:     d.BoxTypeID,
		})
	}
	c.record(ctx, op, metrics.StatusOK, status, nil)
	return out, nil
}

func (c *Client) get(ctx context.Context, op, rawURL, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, domain.E(domain.KindUpstreamUnavailable, op, err)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(op, metrics.StatusError).Inc()
		logger.WB.LogAttrs(ctx, slog.LevelWarn, "request failed",
			slog.String("event", op),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return 0, nil, domain.E(domain.KindUpstreamUnavailable, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(op, metrics.StatusError).Inc()
		return resp.StatusCode, nil, domain.E(domain.KindUpstreamUnavailable, op, err)
	}
	logger.WB.LogAttrs(ctx, slog.LevelDebug, "response",
		slog.String("event", op),
		slog.Int("http_code", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return resp.StatusCode, body, nil
}

// record counts the call and logs non-ok outcomes with the upstream body.
func (c *Client) record(ctx context.Context, op, status string, code int, body []byte) {
	metrics.UpstreamRequests.WithLabelValues(op, status).Inc()
	if status == metrics.StatusOK {
		return
	}
	attrs := []slog.Attr{
		slog.String("event", op),
		slog.String("status", status),
		slog.Int("http_code", code),
	}
	if len(body) > 0 {
		attrs = append(attrs, slog.String("body", logger.SanitizeLimit(string(body), maxLoggedBody)))
	}
	logger.WB.LogAttrs(ctx, slog.LevelWarn, "upstream answer", attrs...)
}

func ok2xx(status int) bool { return status >= 200 && status < 300 }

func cut(body []byte) string {
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}
	return string(body)
}
