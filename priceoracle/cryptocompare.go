// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package priceoracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// CryptoCompareOracle is the reference Oracle implementation described in
// spec.md §6: a CryptoCompare-style histoday endpoint, fsym=TICKER,
// tsym=USD, limit=2000, toTs=<unix-seconds>. No library in the retrieval
// pack wraps this API; it is a small, direct net/http client (see
// DESIGN.md for why this is the one networking concern not built on a
// pack-sourced HTTP client library).
type CryptoCompareOracle struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewCryptoCompareOracle returns an Oracle backed by the given base URL
// (defaulting to CryptoCompare's public min-api host) and optional key.
func NewCryptoCompareOracle(baseURL, apiKey string) *CryptoCompareOracle {
	if baseURL == "" {
		baseURL = "https://min-api.cryptocompare.com"
	}
	return &CryptoCompareOracle{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type histodayResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		Data []struct {
			Time  int64   `json:"time"`
			Close float64 `json:"close"`
		} `json:"Data"`
	} `json:"Data"`
}

// FetchDailyCloses implements Oracle.
func (o *CryptoCompareOracle) FetchDailyCloses(ctx context.Context, ticker string, toDate time.Time) (map[string]decimal.Decimal, error) {
	endpoint := o.BaseURL + "/data/v2/histoday"
	q := url.Values{}
	q.Set("fsym", ticker)
	q.Set("tsym", "USD")
	q.Set("limit", "2000")
	q.Set("toTs", strconv.FormatInt(toDate.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building histoday request for %s: %w", ticker, err)
	}
	if o.APIKey != "" {
		req.Header.Set("authorization", "Apikey "+o.APIKey)
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("histoday transport failure for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	var parsed histodayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("histoday decode failure for %s: %w", ticker, err)
	}
	if parsed.Response == "Error" {
		return nil, fmt.Errorf("histoday upstream error for %s: %s", ticker, parsed.Message)
	}
	if len(parsed.Data.Data) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	closes := make(map[string]decimal.Decimal, len(parsed.Data.Data))
	for _, point := range parsed.Data.Data {
		day := time.Unix(point.Time, 0).UTC().Format(dayLayout)
		closes[day] = decimal.NewFromFloat(point.Close)
	}
	return closes, nil
}
