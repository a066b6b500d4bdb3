package plati

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plati-tools/platiscout/internal/types"
)

func clientConfig(endpoint string) *types.Config {
	return &types.Config{
		APIEndpoint:   endpoint,
		MarketBaseURL: endpoint,
		UserAgent:     "platiscout-test",
		SearchTimeout: 5 * time.Second,
		DetailTimeout: 5 * time.Second,
		ReviewTimeout: 5 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    5 * time.Millisecond,
		RateLimit:     1000,
		RateBurst:     1000,
	}
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	_, err = NewClient(&types.Config{})
	require.Error(t, err)
}

func TestSearchPageDecodesPayload(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"content":{"items":[{"product_id":7,"seller_id":3,"price":199.5}],"has_next_page":true}}`)
	}))
	defer srv.Close()

	client, err := NewClient(clientConfig(srv.URL))
	require.NoError(t, err)

	content, err := client.SearchPage(context.Background(), "spotify", 1, 30, "RUB", "ru-RU")
	require.NoError(t, err)
	require.Len(t, content.Items, 1)
	assert.Equal(t, int64(7), content.Items[0].ProductID)
	assert.Equal(t, 199.5, content.Items[0].Price)
	assert.True(t, content.HasNextPage)
	assert.Equal(t, "platiscout-test", gotUA.Load())
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"retval":0,"product":{"id":7,"name":"x","price":100}}`)
	}))
	defer srv.Close()

	client, err := NewClient(clientConfig(srv.URL))
	require.NoError(t, err)

	resp, err := client.ProductData(context.Background(), 7, "RUB", "ru-RU")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(7), resp.Product.ID)
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(clientConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.ProductData(context.Background(), 7, "RUB", "ru-RU")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "404 is permanent")
}

func TestFetchGivesUpAfterRetryBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(clientConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.SellerReviews(context.Background(), 3, "ru-RU")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
}

func TestFetchHonoursContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := clientConfig(srv.URL)
	cfg.RetryDelay = 10 * time.Second
	client, err := NewClient(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.SellerReviews(ctx, 3, "ru-RU")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
