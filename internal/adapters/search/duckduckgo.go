// Package search implements the drug web lookup against DuckDuckGo's
// HTML endpoint. It scrapes the first result snippet, which is enough
// for a one-line summary fed back to the model.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/kokoron/kokoron-backend/internal/observability"
)

const (
	endpoint  = "https://duckduckgo.com/html/"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	maxBodyBytes = 1 << 20
)

var snippetRe = regexp.MustCompile(`<a class="result__snippet"[^>]*>([^<]+)`)

// DuckDuckGoSearcher implements domain.WebSearcher.
type DuckDuckGoSearcher struct {
	httpClient *http.Client
	baseURL    string
}

func NewDuckDuckGoSearcher() *DuckDuckGoSearcher {
	return &DuckDuckGoSearcher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    endpoint,
	}
}

// NewDuckDuckGoSearcherWithBase is used by tests to point at a stub server.
func NewDuckDuckGoSearcherWithBase(baseURL string, client *http.Client) *DuckDuckGoSearcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &DuckDuckGoSearcher{httpClient: client, baseURL: baseURL}
}

// SearchDrugInfo queries "<drug> 効果 副作用" and returns the first
// result snippet.
func (s *DuckDuckGoSearcher) SearchDrugInfo(ctx context.Context, drugName string) (string, error) {
	log := observability.LoggerFromContext(ctx)

	query := url.QueryEscape(drugName + " 効果 副作用")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?q="+query, nil)
	if err != nil {
		return "", fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("drug search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("drug search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}

	match := snippetRe.FindSubmatch(body)
	if match == nil {
		log.Warn("no snippet found in search results", "drug_name", drugName)
		return "検索結果の要約を取得できませんでした。", nil
	}

	log.Info("drug search succeeded", "drug_name", drugName)
	return string(match[1]), nil
}
