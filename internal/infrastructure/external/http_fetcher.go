package external

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// CDN hotlink protection tends to serve error pages smaller than this.
	minImageBytes = 1000
)

// HTTPFetcher downloads images with escalating strategies: full browser
// headers first, a minimal header set second, then a proxy fetch through
// the image store when one is available. Product CDNs block plain
// programmatic requests, hence the theater.
type HTTPFetcher struct {
	client *http.Client
	proxy  repositories.RemoteFetcher
	log    zerolog.Logger
}

// NewHTTPFetcher builds a fetcher. proxy may be nil, dropping the third
// strategy.
func NewHTTPFetcher(proxy repositories.RemoteFetcher, log zerolog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 20 * time.Second},
		proxy:  proxy,
		log:    log,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*valueobjects.ImageData, error) {
	img, err := f.tryDownload(ctx, url, browserHeaders(url))
	if err == nil {
		return img, nil
	}
	f.log.Debug().Err(err).Str("url", url).Msg("direct download failed, retrying with minimal headers")

	img, altErr := f.tryDownload(ctx, url, map[string]string{
		"User-Agent": browserUserAgent,
		"Accept":     "image/*",
		"Referer":    "https://www.google.com/",
	})
	if altErr == nil {
		return img, nil
	}

	if f.proxy != nil {
		f.log.Debug().Str("url", url).Msg("retrying via store proxy")
		img, proxyErr := f.proxy.FetchRemote(ctx, url)
		if proxyErr == nil {
			return img, nil
		}
		return nil, fmt.Errorf("all download strategies failed for %s: %w", url, proxyErr)
	}

	return nil, fmt.Errorf("all download strategies failed for %s: %w", url, altErr)
}

func (f *HTTPFetcher) tryDownload(ctx context.Context, url string, headers map[string]string) (*valueobjects.ImageData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) < minImageBytes {
		return nil, fmt.Errorf("suspiciously small response: %d bytes", len(body))
	}

	return valueobjects.NewImageData(body)
}

func browserHeaders(url string) map[string]string {
	headers := map[string]string{
		"User-Agent":      browserUserAgent,
		"Accept":          "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Connection":      "keep-alive",
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	}
	if strings.Contains(strings.ToLower(url), "asos") {
		headers["Referer"] = "https://www.asos.com/"
		headers["Origin"] = "https://www.asos.com"
	}
	return headers
}
