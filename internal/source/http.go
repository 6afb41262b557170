package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/logging"
)

// HTTPFetcher downloads months from <BaseURL>/<object name>.
type HTTPFetcher struct {
	BaseURL  string
	CacheDir string
	Client   *http.Client
	Logger   *slog.Logger
}

// NewHTTPFetcher creates an HTTPFetcher using http.DefaultClient.
func NewHTTPFetcher(baseURL, cacheDir string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		CacheDir: cacheDir,
		Client:   http.DefaultClient,
		Logger:   logging.Component("source"),
	}
}

// Fetch implements Fetcher.
func (h *HTTPFetcher) Fetch(ctx context.Context, year, month int) (string, error) {
	path, ok, err := cached(h.CacheDir, year, month)
	if err != nil {
		return "", err
	}
	if ok {
		h.Logger.Debug("using cached source file", "path", path)
		return path, nil
	}

	url := h.BaseURL + "/" + ObjectName(year, month)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	h.Logger.Info("downloading source file", "url", url)

	resp, err := h.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %v: %w", url, err, errors.ErrSourceFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("GET %s: status %s: %w", url, resp.Status, errors.ErrSourceFetch)
	}

	if err := writeFile(path, resp.Body); err != nil {
		return "", fmt.Errorf("GET %s: %w", url, err)
	}

	h.Logger.Info("source file downloaded", "path", path)
	return path, nil
}
