// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package disposal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanbud5/crypto-tax-tool/lotpool"
	"github.com/ethanbud5/crypto-tax-tool/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDisposeSplitsProceedsProportionally(t *testing.T) {
	pool := lotpool.New()
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("0.5"), Original: dec("0.5"), CostBasisPerUnit: dec("30000"), AcquisitionInstant: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)})
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("0.5"), Original: dec("0.5"), CostBasisPerUnit: dec("40000"), AcquisitionInstant: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)})

	results, err := Dispose(pool, "W", "BTC", dec("1"), dec("50000"), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), model.Sell, model.FIFO)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Proceeds.Equal(dec("25000")))
	assert.True(t, results[1].Proceeds.Equal(dec("25000")))
	assert.True(t, results[0].CostBasis.Equal(dec("15000")))
	assert.True(t, results[1].CostBasis.Equal(dec("20000")))
}

func TestDisposeSplitsProceedsExactlyOnNonDivisibleShares(t *testing.T) {
	pool := lotpool.New()
	acquired := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("1"), Original: dec("1"), CostBasisPerUnit: dec("10000"), AcquisitionInstant: acquired})
	}

	results, err := Dispose(pool, "W", "BTC", dec("3"), dec("100"), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), model.Sell, model.FIFO)
	require.NoError(t, err)
	require.Len(t, results, 3)

	sum := decimal.Zero
	for _, r := range results {
		sum = sum.Add(r.Proceeds)
	}
	assert.True(t, sum.Equal(dec("100")), "expected proceeds to sum exactly to 100, got %s", sum)
}

func TestDisposeLongTermRequiresStrictlyMoreThanThreeSixtyFiveDays(t *testing.T) {
	pool := lotpool.New()
	acquired := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("1"), Original: dec("1"), CostBasisPerUnit: dec("20000"), AcquisitionInstant: acquired})

	exactlyOneYear := acquired.AddDate(1, 0, 0)
	results, err := Dispose(pool, "W", "BTC", dec("1"), dec("60000"), exactlyOneYear, model.Sell, model.FIFO)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(365), results[0].DaysHeld)
	assert.False(t, results[0].LongTerm)
}

func TestDisposeGiftSentAtZeroProceedsProducesLoss(t *testing.T) {
	pool := lotpool.New()
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("1"), Original: dec("1"), CostBasisPerUnit: dec("30000"), AcquisitionInstant: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})

	results, err := Dispose(pool, "W", "BTC", dec("0.5"), decimal.Zero, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), model.GiftSent, model.FIFO)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Proceeds.IsZero())
	assert.True(t, results[0].CostBasis.Equal(dec("15000")))
	assert.True(t, results[0].GainOrLoss.Equal(dec("-15000")))
}

func TestDisposeInsufficientLotsReturnsErrorContainingInsufficientLots(t *testing.T) {
	pool := lotpool.New()
	_, err := Dispose(pool, "W", "BTC", dec("1"), dec("50000"), time.Now(), model.Sell, model.FIFO)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient lots")
}

func TestDisposeHIFOPrefersHighestCostBasisLot(t *testing.T) {
	pool := lotpool.New()
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("1"), Original: dec("1"), CostBasisPerUnit: dec("30000"), AcquisitionInstant: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("1"), Original: dec("1"), CostBasisPerUnit: dec("40000"), AcquisitionInstant: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})

	results, err := Dispose(pool, "W", "BTC", dec("1"), dec("50000"), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), model.Sell, model.HIFO)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].GainOrLoss.Equal(dec("10000")))
}
