// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package nativecsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanbud5/crypto-tax-tool/model"
)

const canonicalHeader = "date_time,transaction_type,sent_asset,sent_amount,sent_asset_price_usd,received_asset,received_amount,received_asset_price_usd,fee_amount,fee_asset,fee_usd,wallet_or_exchange,tx_hash,notes\n"

func TestParseCSVRoundTripsThroughWrite(t *testing.T) {
	raw := canonicalHeader + "2024-01-01T00:00:00Z,BUY,,,,BTC,1,30000,,,,Coinbase,0xabc,first buy\n"
	rows, err := ParseCSV(raw)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	written, err := WriteCSV(rows)
	require.NoError(t, err)

	reparsed, err := ParseCSV(written)
	require.NoError(t, err)
	require.Len(t, reparsed, 1)
	assert.Equal(t, rows[0].DateTime, reparsed[0].DateTime)
	assert.Equal(t, rows[0].ReceivedAmount, reparsed[0].ReceivedAmount)
	assert.Equal(t, rows[0].WalletOrExchange, reparsed[0].WalletOrExchange)
}

func TestParseCSVEmptyInputYieldsEmptyResult(t *testing.T) {
	rows, err := ParseCSV("   \n  \n")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestValidateMissingTimezoneWarnsAndAssumesUTC(t *testing.T) {
	rows := []Row{{
		SourceRow: 2, DateTime: "2024-01-01T00:00:00", TransactionType: "BUY",
		ReceivedAsset: "BTC", ReceivedAmount: "1", ReceivedAssetPriceUSD: "30000",
		WalletOrExchange: "Coinbase",
	}}
	txs, diags := Validate(rows, "test.csv")
	require.Len(t, txs, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, model.SeverityWarning, diags[0].Severity)
	assert.Equal(t, model.WarnMissingTimezone, diags[0].KindTag)
}

func TestValidateZeroAmountIsRejectedAsNonPositive(t *testing.T) {
	rows := []Row{{
		SourceRow: 2, DateTime: "2024-01-01T00:00:00Z", TransactionType: "BUY",
		ReceivedAsset: "BTC", ReceivedAmount: "0", ReceivedAssetPriceUSD: "30000",
		WalletOrExchange: "Coinbase",
	}}
	txs, diags := Validate(rows, "test.csv")
	assert.Empty(t, txs)
	require.NotEmpty(t, diags)
	assert.Equal(t, model.ErrNonPositiveAmount, diags[0].KindTag)
}

func TestValidateUnrecognizedKindFails(t *testing.T) {
	rows := []Row{{
		SourceRow: 2, DateTime: "2024-01-01T00:00:00Z", TransactionType: "FROBNICATE",
		WalletOrExchange: "Coinbase",
	}}
	txs, diags := Validate(rows, "test.csv")
	assert.Empty(t, txs)
	require.NotEmpty(t, diags)
	assert.Equal(t, model.ErrUnknownTransactionKind, diags[0].KindTag)
}

func TestValidateMissingWalletFails(t *testing.T) {
	rows := []Row{{
		SourceRow: 2, DateTime: "2024-01-01T00:00:00Z", TransactionType: "BUY",
		ReceivedAsset: "BTC", ReceivedAmount: "1", ReceivedAssetPriceUSD: "30000",
	}}
	txs, diags := Validate(rows, "test.csv")
	assert.Empty(t, txs)
	require.NotEmpty(t, diags)
	assert.Equal(t, model.ErrMissingRequiredField, diags[0].KindTag)
}

func TestValidateTradeRequiresBothLegs(t *testing.T) {
	rows := []Row{{
		SourceRow: 2, DateTime: "2024-01-01T00:00:00Z", TransactionType: "TRADE",
		SentAsset: "BTC", SentAmount: "1", SentAssetPriceUSD: "30000",
		WalletOrExchange: "Coinbase",
	}}
	txs, diags := Validate(rows, "test.csv")
	assert.Empty(t, txs)
	require.NotEmpty(t, diags)
	found := false
	for _, d := range diags {
		if d.KindTag == model.ErrMissingRequiredField {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateFeeUSDAllowsZeroUnlikeOtherNumericFields(t *testing.T) {
	rows := []Row{{
		SourceRow: 2, DateTime: "2024-01-01T00:00:00Z", TransactionType: "BUY",
		ReceivedAsset: "BTC", ReceivedAmount: "1", ReceivedAssetPriceUSD: "30000",
		FeeUSD: "0", WalletOrExchange: "Coinbase",
	}}
	txs, diags := Validate(rows, "test.csv")
	require.Len(t, txs, 1)
	for _, d := range diags {
		assert.NotEqual(t, model.SeverityError, d.Severity)
	}
}

func TestValidateMintsSyntheticIDWhenTxHashBlank(t *testing.T) {
	rows := []Row{{
		SourceRow: 2, DateTime: "2024-01-01T00:00:00Z", TransactionType: "BUY",
		ReceivedAsset: "BTC", ReceivedAmount: "1", ReceivedAssetPriceUSD: "30000",
		WalletOrExchange: "Coinbase",
	}}
	txs, _ := Validate(rows, "test.csv")
	require.Len(t, txs, 1)
	assert.NotEmpty(t, txs[0].SyntheticID)
}

func TestValidateLeavesSyntheticIDEmptyWhenTxHashPresent(t *testing.T) {
	rows := []Row{{
		SourceRow: 2, DateTime: "2024-01-01T00:00:00Z", TransactionType: "BUY",
		ReceivedAsset: "BTC", ReceivedAmount: "1", ReceivedAssetPriceUSD: "30000",
		WalletOrExchange: "Coinbase", TxHash: "0xabc",
	}}
	txs, _ := Validate(rows, "test.csv")
	require.Len(t, txs, 1)
	assert.Empty(t, txs[0].SyntheticID)
}

func TestValidateRowWithOnlyWarningsStillProducesTransaction(t *testing.T) {
	rows := []Row{{
		SourceRow: 2, DateTime: "2024-01-01T00:00:00", TransactionType: "BUY",
		ReceivedAsset: "BTC", ReceivedAmount: "1", ReceivedAssetPriceUSD: "30000",
		WalletOrExchange: "Coinbase",
	}}
	txs, _ := Validate(rows, "test.csv")
	require.Len(t, txs, 1)
	assert.Equal(t, model.Buy, txs[0].Kind)
}
