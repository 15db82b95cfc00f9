package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/foliotrack/backend/src/logger"
	"github.com/username/foliotrack/backend/src/models"
	"golang.org/x/net/publicsuffix"
)

const quoteUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// --- API Response Structs ---

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// --- Service Implementation ---

type priceServiceImpl struct {
	httpClient    http.Client
	baseURL       string
	quoteCache    *cache.Cache
	cacheTTL      time.Duration
	isInitialized bool
	crumb         string
	mu            sync.Mutex
}

// NewPriceService builds the Yahoo-backed price oracle. Quotes are cached
// briefly so one request burst does not hammer the upstream API; the cache
// is advisory only, callers always tolerate a cold fetch.
func NewPriceService(baseURL string, timeout time.Duration, cacheTTL time.Duration) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	s := &priceServiceImpl{
		httpClient: http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		baseURL:    baseURL,
		quoteCache: cache.New(cacheTTL, 2*cacheTTL),
		cacheTTL:   cacheTTL,
	}

	go s.initializeYahooSession()

	return s
}

func (s *priceServiceImpl) initializeYahooSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isInitialized && s.crumb != "" {
		return
	}

	logger.L.Info("Initializing Yahoo Finance session and fetching Crumb...")

	for _, warmup := range []string{"https://fc.yahoo.com", "https://finance.yahoo.com"} {
		req, _ := http.NewRequest("GET", warmup, nil)
		req.Header.Set("User-Agent", quoteUserAgent)
		resp, err := s.httpClient.Do(req)
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	req, _ := http.NewRequest("GET", s.baseURL+"/v1/test/getcrumb", nil)
	req.Header.Set("User-Agent", quoteUserAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.L.Error("Failed to fetch crumb", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		s.crumb = string(bodyBytes)
		s.isInitialized = true
		logger.L.Info("Yahoo session initialized successfully")
	} else {
		logger.L.Warn("Failed to fetch crumb", "status", resp.Status)
	}
}

func (s *priceServiceImpl) ensureSession() {
	s.mu.Lock()
	needsInit := !s.isInitialized || s.crumb == ""
	s.mu.Unlock()

	if needsInit {
		s.initializeYahooSession()
	}
}

// GetQuotes resolves current price and previous close for each symbol.
// Lookups run concurrently, one per symbol; a symbol that cannot be priced
// comes back UNAVAILABLE without disturbing the others.
func (s *priceServiceImpl) GetQuotes(ctx context.Context, symbols []string) map[string]models.PriceQuote {
	s.ensureSession()

	results := make(map[string]models.PriceQuote, len(symbols))
	for _, symbol := range symbols {
		results[symbol] = models.PriceQuote{Symbol: symbol, Status: models.QuoteStatusUnavailable}
	}
	if len(symbols) == 0 {
		return results
	}

	var toFetch []string
	for _, symbol := range symbols {
		if cached, found := s.quoteCache.Get(symbol); found {
			results[symbol] = cached.(models.PriceQuote)
			continue
		}
		toFetch = append(toFetch, symbol)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, symbol := range toFetch {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			quote, err := s.fetchQuote(ctx, sym)
			if err != nil {
				logger.L.Warn("Could not get quote for symbol from API", "symbol", sym, "error", err)
				return
			}
			s.quoteCache.Set(sym, quote, s.cacheTTL)
			mu.Lock()
			results[sym] = quote
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	return results
}

// fetchQuote pulls a few days of daily bars so the previous close can be
// read from the bar before the latest one, mirroring the regular quote
// page. The meta regularMarketPrice is the live price when available.
func (s *priceServiceImpl) fetchQuote(ctx context.Context, symbol string) (models.PriceQuote, error) {
	var quote models.PriceQuote

	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d&crumb=%s",
		s.baseURL, url.PathEscape(symbol), url.QueryEscape(s.crumb))
	req, err := http.NewRequestWithContext(ctx, "GET", chartURL, nil)
	if err != nil {
		return quote, err
	}
	req.Header.Set("User-Agent", quoteUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return quote, fmt.Errorf("failed to call chart API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		s.mu.Lock()
		s.isInitialized = false
		s.mu.Unlock()
		return quote, fmt.Errorf("status 401 (Unauthorized) - Crumb invalid")
	}
	if resp.StatusCode != http.StatusOK {
		return quote, fmt.Errorf("chart API returned non-OK status %d", resp.StatusCode)
	}

	var chartData yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartData); err != nil {
		return quote, fmt.Errorf("failed to decode chart response: %w", err)
	}
	if chartData.Chart.Error != nil {
		return quote, fmt.Errorf("chart API returned an error: %v", chartData.Chart.Error)
	}
	if len(chartData.Chart.Result) == 0 {
		return quote, fmt.Errorf("no chart data found")
	}

	result := chartData.Chart.Result[0]
	var closes []float64
	if len(result.Indicators.Quote) > 0 {
		for _, c := range result.Indicators.Quote[0].Close {
			if c > 0 {
				closes = append(closes, c)
			}
		}
	}

	current := result.Meta.RegularMarketPrice
	if current == 0 && len(closes) > 0 {
		current = closes[len(closes)-1]
	}
	if current == 0 {
		return quote, fmt.Errorf("no price data found")
	}

	var previous float64
	if len(closes) > 1 {
		previous = closes[len(closes)-2]
	}
	if previous == 0 {
		return quote, fmt.Errorf("no previous close found")
	}

	return models.PriceQuote{
		Symbol:        symbol,
		Status:        models.QuoteStatusOK,
		CurrentPrice:  decimal.NewFromFloat(current),
		PreviousClose: decimal.NewFromFloat(previous),
	}, nil
}
