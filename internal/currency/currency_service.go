package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	currencyerrors "go-expensio/internal/currency/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL = "https://api.exchangerate-api.com/v4/latest"
	rateCacheTTL   = time.Hour
)

type CurrencyInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// CommonCurrencies is the quick-selection list surfaced by the API.
var CommonCurrencies = []CurrencyInfo{
	{Code: "USD", Name: "US Dollar", Symbol: "$"},
	{Code: "EUR", Name: "Euro", Symbol: "€"},
	{Code: "GBP", Name: "British Pound", Symbol: "£"},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥"},
	{Code: "INR", Name: "Indian Rupee", Symbol: "₹"},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$"},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$"},
	{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF"},
}

//go:generate mockgen -source=currency_service.go -destination=mock/currency_service_mock.go -package=mock
type Service interface {
	// Convert returns amount expressed in the target currency. Same
	// currency is an identity conversion and never touches the rate source.
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
	Rates(ctx context.Context, base string) (map[string]float64, error)
	Common() []CurrencyInfo
}

type service struct {
	client  *http.Client
	rdb     *redis.Client
	baseURL string
	group   singleflight.Group
	logger  *zap.Logger
}

func NewService(rdb *redis.Client, baseURL string, logger ...*zap.Logger) Service {
	l := zap.L().Named("currency.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("currency.service")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &service{
		client:  &http.Client{Timeout: 10 * time.Second},
		rdb:     rdb,
		baseURL: baseURL,
		logger:  l,
	}
}

func (s *service) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if len(from) != 3 || len(to) != 3 {
		return 0, currencyerrors.ErrInvalidCurrencyCode
	}
	if from == to {
		return amount, nil
	}

	rates, err := s.Rates(ctx, from)
	if err != nil {
		return 0, err
	}

	rate, ok := rates[to]
	if !ok || rate <= 0 {
		s.logger.Warn("no exchange rate quoted",
			zap.String("from", from),
			zap.String("to", to),
		)
		return 0, currencyerrors.ErrConversionUnavailable
	}

	return amount * rate, nil
}

// Rates returns the rate table for a base currency, cached in redis for an
// hour. Concurrent cache misses for the same base collapse into one upstream
// call via singleflight.
func (s *service) Rates(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if len(base) != 3 {
		return nil, currencyerrors.ErrInvalidCurrencyCode
	}

	cacheKey := "currency:rates:" + base
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var rates map[string]float64
			if err := json.Unmarshal(cached, &rates); err == nil {
				return rates, nil
			}
		}
	}

	v, err, _ := s.group.Do(base, func() (interface{}, error) {
		return s.fetchRates(ctx, base)
	})
	if err != nil {
		return nil, err
	}
	rates := v.(map[string]float64)

	if s.rdb != nil {
		if payload, err := json.Marshal(rates); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, payload, rateCacheTTL).Err(); err != nil {
				s.logger.Warn("cache rates failed", zap.String("base", base), zap.Error(err))
			}
		}
	}

	return rates, nil
}

func (s *service) Common() []CurrencyInfo {
	return CommonCurrencies
}

func (s *service) fetchRates(ctx context.Context, base string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, currencyerrors.ErrConversionUnavailable
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("rate source request failed", zap.String("base", base), zap.Error(err))
		return nil, currencyerrors.ErrConversionUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("rate source returned non-200",
			zap.String("base", base),
			zap.Int("status", resp.StatusCode),
		)
		return nil, currencyerrors.ErrConversionUnavailable
	}

	var body struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, currencyerrors.ErrConversionUnavailable
	}
	if len(body.Rates) == 0 {
		return nil, currencyerrors.ErrConversionUnavailable
	}

	return body.Rates, nil
}
