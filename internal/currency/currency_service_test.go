package currency_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-expensio/internal/currency"
	currencyerrors "go-expensio/internal/currency/errors"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func rateSource(t *testing.T, rates map[string]float64, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		fmt.Fprintf(w, `{"base":"USD","rates":%s}`, mustJSON(t, rates))
	}))
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	assert.NoError(t, err)
	return string(b)
}

func TestCurrencyService_Convert(t *testing.T) {
	ctx := context.Background()

	t.Run("identity conversion skips the rate source", func(t *testing.T) {
		svc := currency.NewService(nil, "http://unreachable.invalid")

		got, err := svc.Convert(ctx, 99.5, "usd", "USD")

		assert.NoError(t, err)
		assert.Equal(t, 99.5, got)
	})

	t.Run("invalid code", func(t *testing.T) {
		svc := currency.NewService(nil, "http://unreachable.invalid")

		_, err := svc.Convert(ctx, 10, "US", "EUR")

		assert.ErrorIs(t, err, currencyerrors.ErrInvalidCurrencyCode)
	})

	t.Run("applies the quoted rate", func(t *testing.T) {
		src := rateSource(t, map[string]float64{"EUR": 0.9}, http.StatusOK)
		defer src.Close()

		svc := currency.NewService(nil, src.URL)

		got, err := svc.Convert(ctx, 100, "USD", "EUR")

		assert.NoError(t, err)
		assert.InDelta(t, 90.0, got, 0.0001)
	})

	t.Run("missing rate is a conversion failure", func(t *testing.T) {
		src := rateSource(t, map[string]float64{"EUR": 0.9}, http.StatusOK)
		defer src.Close()

		svc := currency.NewService(nil, src.URL)

		_, err := svc.Convert(ctx, 100, "USD", "IDR")

		assert.ErrorIs(t, err, currencyerrors.ErrConversionUnavailable)
	})

	t.Run("upstream failure is a conversion failure", func(t *testing.T) {
		src := rateSource(t, nil, http.StatusInternalServerError)
		defer src.Close()

		svc := currency.NewService(nil, src.URL)

		_, err := svc.Convert(ctx, 100, "USD", "EUR")

		assert.ErrorIs(t, err, currencyerrors.ErrConversionUnavailable)
	})
}

func TestCurrencyService_Rates(t *testing.T) {
	ctx := context.Background()

	t.Run("cache miss fetches and fills the cache", func(t *testing.T) {
		rates := map[string]float64{"EUR": 0.9, "GBP": 0.78}
		src := rateSource(t, rates, http.StatusOK)
		defer src.Close()

		rdb, redisMock := redismock.NewClientMock()
		payload, _ := json.Marshal(rates)
		redisMock.ExpectGet("currency:rates:USD").RedisNil()
		redisMock.ExpectSet("currency:rates:USD", payload, time.Hour).SetVal("OK")

		svc := currency.NewService(rdb, src.URL)

		got, err := svc.Rates(ctx, "USD")

		assert.NoError(t, err)
		assert.Equal(t, rates, got)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache hit never reaches the rate source", func(t *testing.T) {
		rates := map[string]float64{"EUR": 0.9}
		src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("rate source should not be called on a cache hit")
		}))
		defer src.Close()

		rdb, redisMock := redismock.NewClientMock()
		payload, _ := json.Marshal(rates)
		redisMock.ExpectGet("currency:rates:USD").SetVal(string(payload))

		svc := currency.NewService(rdb, src.URL)

		got, err := svc.Rates(ctx, "USD")

		assert.NoError(t, err)
		assert.Equal(t, rates, got)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("empty rate table is refused", func(t *testing.T) {
		src := rateSource(t, map[string]float64{}, http.StatusOK)
		defer src.Close()

		svc := currency.NewService(nil, src.URL)

		_, err := svc.Rates(ctx, "USD")

		assert.ErrorIs(t, err, currencyerrors.ErrConversionUnavailable)
	})
}

func TestCurrencyService_Common(t *testing.T) {
	svc := currency.NewService(nil, "http://unreachable.invalid")

	common := svc.Common()

	assert.NotEmpty(t, common)
	assert.Equal(t, "USD", common[0].Code)
}
