// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package priceoracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDailyClosesParsesHistodayResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTC", r.URL.Query().Get("fsym"))
		assert.Equal(t, "USD", r.URL.Query().Get("tsym"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Response":"Success","Data":{"Data":[
			{"time":1704067200,"close":42000.5},
			{"time":1704153600,"close":43000.25}
		]}}`))
	}))
	defer srv.Close()

	oracle := NewCryptoCompareOracle(srv.URL, "")
	closes, err := oracle.FetchDailyCloses(context.Background(), "BTC", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Contains(t, closes, "2024-01-01")
	assert.True(t, closes["2024-01-01"].Equal(decimal.NewFromFloat(42000.5)))
	assert.True(t, closes["2024-01-02"].Equal(decimal.NewFromFloat(43000.25)))
}

func TestFetchDailyClosesReturnsErrorOnUpstreamErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Response":"Error","Message":"unknown ticker"}`))
	}))
	defer srv.Close()

	oracle := NewCryptoCompareOracle(srv.URL, "")
	_, err := oracle.FetchDailyCloses(context.Background(), "NOPE", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ticker")
}

func TestFetchDailyClosesSendsAPIKeyHeaderWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Apikey secret-key", r.Header.Get("authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Response":"Success","Data":{"Data":[]}}`))
	}))
	defer srv.Close()

	oracle := NewCryptoCompareOracle(srv.URL, "secret-key")
	closes, err := oracle.FetchDailyCloses(context.Background(), "BTC", time.Now())
	require.NoError(t, err)
	assert.Empty(t, closes)
}

func TestNewCryptoCompareOracleDefaultsBaseURL(t *testing.T) {
	oracle := NewCryptoCompareOracle("", "")
	assert.Equal(t, "https://min-api.cryptocompare.com", oracle.BaseURL)
}
