package std

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ilkoid/poncho-toolcall/pkg/tools"
)

// FetchConfig - настройки fetch_url.
type FetchConfig struct {
	RatePerMinute int   // запросов в минуту
	Burst         int   // burst для rate limiter
	MaxBytes      int64 // сколько байт тела возвращать модели
	Client        *http.Client
}

// fetchArgs - аргументы fetch_url.
type fetchArgs struct {
	URL string `json:"url" jsonschema:"description=Absolute http or https URL to fetch"`
}

// fetchResult - то, что видит модель.
type fetchResult struct {
	Status    int    `json:"status"`
	Body      string `json:"body"`
	Truncated bool   `json:"truncated,omitempty"`
}

// NewFetchURLTool создаёт fetch_url: HTTP GET с ограничением частоты запросов.
//
// Limiter общий для всех вызовов инструмента, в том числе параллельных.
func NewFetchURLTool(cfg FetchConfig) (tools.Tool, error) {
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 30
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxReadBytes
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}

	// RatePerMinute в запросах/минуту → rate.Limit в запросах/секунду
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), cfg.Burst)

	fetch := func(ctx context.Context, a fetchArgs) (fetchResult, error) {
		u, err := url.Parse(a.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fetchResult{}, fmt.Errorf("invalid url %q", a.URL)
		}

		if err := limiter.Wait(ctx); err != nil {
			return fetchResult{}, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return fetchResult{}, err
		}
		resp, err := cfg.Client.Do(req)
		if err != nil {
			return fetchResult{}, fmt.Errorf("http get: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, cfg.MaxBytes+1))
		if err != nil && !errors.Is(err, io.EOF) {
			return fetchResult{}, fmt.Errorf("read body: %w", err)
		}

		res := fetchResult{Status: resp.StatusCode}
		if int64(len(body)) > cfg.MaxBytes {
			body = body[:cfg.MaxBytes]
			res.Truncated = true
		}
		res.Body = string(body)
		return res, nil
	}

	return tools.NewFunc("fetch_url", "Fetches a web page or API endpoint with HTTP GET and returns its status and body.", fetch)
}
