package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"hostly/config"
	"hostly/internal/constants"
	"hostly/internal/database"
	"hostly/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
)

const (
	currencyFetchTimeout = 10 * time.Second
	currencyMaxBodyBytes = 1 << 20
)

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrRatesUnavailable    = errors.New("exchange rates unavailable")
)

type ExchangeRates struct {
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetchedAt"`
}

// rate returns units of code per one unit of the base currency.
func (r *ExchangeRates) rate(code string) (decimal.Decimal, bool) {
	if code == r.Base {
		return decimal.NewFromInt(1), true
	}
	value, ok := r.Rates[code]
	if !ok || !value.IsPositive() {
		return decimal.Zero, false
	}
	return value, true
}

// Convert moves amount between any two currencies in the table using the base
// as pivot.
func (r *ExchangeRates) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	fromRate, ok := r.rate(from)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, from)
	}
	toRate, ok := r.rate(to)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, to)
	}

	return amount.Div(fromRate).Mul(toRate).Round(2), nil
}

type rateResponse struct {
	Result   string                     `json:"result"`
	Base     string                     `json:"base"`
	BaseCode string                     `json:"base_code"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

// CurrencyService memoizes exchange rates in valkey, falling back to process
// memory when the cache is not configured.
type CurrencyService struct {
	cache   database.CacheClient
	client  *http.Client
	baseURL string
	log     logger.Logger

	mu     sync.Mutex
	memory map[string]*ExchangeRates
	now    func() time.Time
}

func NewCurrencyService(cfg config.Config, cache database.CacheClient) *CurrencyService {
	baseURL := cfg.CurrencyAPIURL
	if baseURL == "" {
		baseURL = config.DefaultCurrencyAPIURL
	}

	return &CurrencyService{
		cache:   cache,
		client:  &http.Client{Timeout: currencyFetchTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.New("CurrencyService"),
		memory:  make(map[string]*ExchangeRates),
		now:     time.Now,
	}
}

func (s *CurrencyService) Rates(ctx context.Context, base string) (*ExchangeRates, error) {
	log := s.log.Function("Rates")

	base = strings.ToUpper(strings.TrimSpace(base))
	if !utils.IsValidCurrency(base) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, base)
	}

	if rates, ok := s.fromMemory(base); ok {
		return rates, nil
	}

	var cached ExchangeRates
	found, err := database.NewCacheBuilder(s.cache, base).
		WithContext(ctx).
		WithHashPattern(constants.CurrencyCachePrefix + ":%s").
		Get(&cached)
	if err != nil && !errors.Is(err, database.ErrCacheDisabled) {
		log.Warn("failed to read cached rates", "base", base, "error", err)
	}
	if found {
		s.remember(&cached)
		return &cached, nil
	}

	rates, err := s.fetch(ctx, base)
	if err != nil {
		return nil, err
	}

	err = database.NewCacheBuilder(s.cache, base).
		WithContext(ctx).
		WithHashPattern(constants.CurrencyCachePrefix + ":%s").
		WithStruct(rates).
		WithTTL(constants.CurrencyCacheTTL).
		Set()
	if err != nil && !errors.Is(err, database.ErrCacheDisabled) {
		log.Warn("failed to cache rates", "base", base, "error", err)
	}

	s.remember(rates)
	return rates, nil
}

// Convert converts amount into the target currency using rates based on it.
func (s *CurrencyService) Convert(
	ctx context.Context,
	amount decimal.Decimal,
	from, to string,
) (decimal.Decimal, error) {
	if strings.EqualFold(from, to) {
		return amount, nil
	}

	rates, err := s.Rates(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}
	return rates.Convert(amount, from, to)
}

func (s *CurrencyService) fetch(ctx context.Context, base string) (*ExchangeRates, error) {
	log := s.log.Function("fetch")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+base, nil)
	if err != nil {
		return nil, log.Err("failed to build rates request", err, "base", base)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn("rates request failed", "base", base, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRatesUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Warn("rates provider returned an error", "base", base, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrRatesUnavailable, resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, currencyMaxBodyBytes)).Decode(&body); err != nil {
		return nil, log.Err("failed to decode rates", err, "base", base)
	}
	if body.Result == "error" || len(body.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rate table for %s", ErrRatesUnavailable, base)
	}

	responseBase := strings.ToUpper(body.Base)
	if responseBase == "" {
		responseBase = strings.ToUpper(body.BaseCode)
	}
	if responseBase != "" && responseBase != base {
		return nil, fmt.Errorf("%w: provider answered for %s", ErrRatesUnavailable, responseBase)
	}

	return &ExchangeRates{
		Base:      base,
		Rates:     body.Rates,
		FetchedAt: s.now().UTC(),
	}, nil
}

func (s *CurrencyService) fromMemory(base string) (*ExchangeRates, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rates, ok := s.memory[base]
	if !ok || s.now().Sub(rates.FetchedAt) >= constants.CurrencyCacheTTL {
		return nil, false
	}
	return rates, true
}

func (s *CurrencyService) remember(rates *ExchangeRates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory[rates.Base] = rates
}
