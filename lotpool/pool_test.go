// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package lotpool

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanbud5/crypto-tax-tool/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAddAssignsStableIncreasingIDs(t *testing.T) {
	pool := New()
	first := pool.Add(model.TaxLot{Asset: "BTC", Wallet: "Coinbase", Remaining: dec("1"), Original: dec("1")})
	second := pool.Add(model.TaxLot{Asset: "BTC", Wallet: "Coinbase", Remaining: dec("1"), Original: dec("1")})
	assert.Less(t, first.ID, second.ID)
}

func TestConsumeFIFOOrdersByAcquisitionTime(t *testing.T) {
	pool := New()
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("1"), Original: dec("1"), CostBasisPerUnit: dec("30000"), AcquisitionInstant: early})
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("1"), Original: dec("1"), CostBasisPerUnit: dec("40000"), AcquisitionInstant: later})

	consumed, err := pool.Consume("W", "BTC", dec("1"), model.FIFO)
	require.NoError(t, err)
	require.Len(t, consumed, 1)
	assert.True(t, consumed[0].AcquisitionInstant.Equal(early))
	assert.True(t, consumed[0].CostBasisPerUnit.Equal(dec("30000")))
}

func TestConsumeHIFOOrdersByHighestCostBasis(t *testing.T) {
	pool := New()
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("1"), Original: dec("1"), CostBasisPerUnit: dec("30000"), AcquisitionInstant: early})
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("1"), Original: dec("1"), CostBasisPerUnit: dec("40000"), AcquisitionInstant: later})

	consumed, err := pool.Consume("W", "BTC", dec("1"), model.HIFO)
	require.NoError(t, err)
	require.Len(t, consumed, 1)
	assert.True(t, consumed[0].CostBasisPerUnit.Equal(dec("40000")))
}

func TestConsumeSpanningMultipleLotsSplitsAcrossBoth(t *testing.T) {
	pool := New()
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("0.5"), Original: dec("0.5"), CostBasisPerUnit: dec("30000"), AcquisitionInstant: time.Now()})
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("0.5"), Original: dec("0.5"), CostBasisPerUnit: dec("40000"), AcquisitionInstant: time.Now().Add(time.Hour)})

	consumed, err := pool.Consume("W", "BTC", dec("0.75"), model.FIFO)
	require.NoError(t, err)
	require.Len(t, consumed, 2)
	assert.True(t, consumed[0].Remaining.Equal(dec("0.5")))
	assert.True(t, consumed[1].Remaining.Equal(dec("0.25")))
}

func TestConsumeInsufficientLotsLeavesPoolUnchanged(t *testing.T) {
	pool := New()
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("0.5"), Original: dec("0.5"), AcquisitionInstant: time.Now()})

	_, err := pool.Consume("W", "BTC", dec("1"), model.FIFO)
	require.Error(t, err)
	var insufficient *ErrInsufficientLots
	require.ErrorAs(t, err, &insufficient)
	assert.Contains(t, err.Error(), "Insufficient lots")

	assert.Len(t, pool.RemainingLots(), 1)
	assert.True(t, pool.RemainingLots()[0].Remaining.Equal(dec("0.5")))
}

func TestConsumeOnEmptyBucketFails(t *testing.T) {
	pool := New()
	_, err := pool.Consume("W", "BTC", dec("1"), model.FIFO)
	require.Error(t, err)
}

func TestTransferPreservesBasisAndAcquisitionInstant(t *testing.T) {
	pool := New()
	acquired := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "Coinbase", Remaining: dec("0.0161652"), Original: dec("0.0161652"), CostBasisPerUnit: dec("1500"), AcquisitionInstant: acquired})

	err := pool.Transfer("Coinbase", "River", "BTC", dec("0.0161652"))
	require.NoError(t, err)

	remaining := pool.RemainingLots()
	require.Len(t, remaining, 1)
	assert.Equal(t, "River", remaining[0].Wallet)
	assert.True(t, remaining[0].AcquisitionInstant.Equal(acquired))
	assert.True(t, remaining[0].CostBasisPerUnit.Equal(dec("1500")))
}

func TestExhaustedLotsAreGarbageCollected(t *testing.T) {
	pool := New()
	pool.Add(model.TaxLot{Asset: "BTC", Wallet: "W", Remaining: dec("1"), Original: dec("1"), AcquisitionInstant: time.Now()})
	_, err := pool.Consume("W", "BTC", dec("1"), model.FIFO)
	require.NoError(t, err)
	assert.Empty(t, pool.RemainingLots())
}
