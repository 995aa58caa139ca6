// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package nativecsv

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ethanbud5/crypto-tax-tool/model"
)

var tzOffsetSuffix = regexp.MustCompile(`[+-]\d{2}:?\d{2}$`)

var validKinds = map[string]model.Kind{
	"BUY":           model.Buy,
	"SELL":          model.Sell,
	"TRADE":         model.Trade,
	"SEND":          model.Send,
	"RECEIVE":       model.Receive,
	"MINING":        model.Mining,
	"STAKING":       model.Staking,
	"AIRDROP":       model.Airdrop,
	"FORK":          model.Fork,
	"SPEND":         model.Spend,
	"GIFT_SENT":     model.GiftSent,
	"GIFT_RECEIVED": model.GiftReceived,
	"INCOME":        model.Income,
}

// Validate parses canonical Rows into typed Transactions (spec.md §4.4). A
// row with any error contributes no transaction; a row with only warnings
// still produces one.
func Validate(rows []Row, sourceFile string) ([]model.Transaction, []model.Diagnostic) {
	var txs []model.Transaction
	var diags []model.Diagnostic

	for _, row := range rows {
		tx, rowDiags, ok := validateRow(row, sourceFile)
		diags = append(diags, rowDiags...)
		if ok {
			txs = append(txs, tx)
		}
	}
	return txs, diags
}

func validateRow(row Row, sourceFile string) (model.Transaction, []model.Diagnostic, bool) {
	var diags []model.Diagnostic
	hasError := false

	fail := func(kind, field, msg string) {
		diags = append(diags, model.NewError(kind, row.SourceRow, field, msg))
		hasError = true
	}
	warn := func(kind, field, msg string) {
		diags = append(diags, model.NewWarning(kind, row.SourceRow, field, msg))
	}

	wallet := strings.TrimSpace(row.WalletOrExchange)
	if wallet == "" {
		fail(model.ErrMissingRequiredField, "wallet_or_exchange", "wallet_or_exchange is required")
	}

	typRaw := strings.ToUpper(strings.TrimSpace(row.TransactionType))
	kind, kindOK := validKinds[typRaw]
	if !kindOK {
		fail(model.ErrUnknownTransactionKind, "transaction_type", "unrecognized transaction_type: "+row.TransactionType)
	}

	timestamp, tsOK := parseTimestamp(strings.TrimSpace(row.DateTime), row.SourceRow, fail, warn)

	txHash := strings.TrimSpace(row.TxHash)
	syntheticID := ""
	if txHash == "" {
		syntheticID = uuid.NewString()
	}

	tx := model.Transaction{
		Timestamp:   timestamp,
		Kind:        kind,
		Wallet:      wallet,
		TxHash:      txHash,
		Notes:       row.Notes,
		SourceRow:   row.SourceRow,
		SourceFile:  sourceFile,
		SyntheticID: syntheticID,
	}

	sentAsset := strings.TrimSpace(row.SentAsset)
	receivedAsset := strings.TrimSpace(row.ReceivedAsset)

	sentAmount, sentAmountPresent := parseNumeric(row.SentAmount, row.SourceRow, "sent_amount", fail)
	sentPrice, sentPricePresent := parseNumeric(row.SentAssetPriceUSD, row.SourceRow, "sent_asset_price_usd", fail)
	receivedAmount, receivedAmountPresent := parseNumeric(row.ReceivedAmount, row.SourceRow, "received_amount", fail)
	receivedPrice, receivedPricePresent := parseNumeric(row.ReceivedAssetPriceUSD, row.SourceRow, "received_asset_price_usd", fail)
	feeAmount, feeAmountPresent := parseNumeric(row.FeeAmount, row.SourceRow, "fee_amount", fail)
	feeUSD, feeUSDPresent := parseFeeUSD(row.FeeUSD, row.SourceRow, fail)
	feeAsset := strings.TrimSpace(row.FeeAsset)

	if sentAmountPresent {
		tx.SentAsset = sentAsset
		tx.SentAmount = sentAmount
		tx.SentUnitPriceUSD = sentPrice
		tx.HasSent = sentAsset != ""
	}
	if receivedAmountPresent {
		tx.ReceivedAsset = receivedAsset
		tx.ReceivedAmount = receivedAmount
		tx.ReceivedUnitPriceUSD = receivedPrice
		tx.HasReceived = receivedAsset != ""
	}
	if feeAmountPresent {
		tx.FeeAmount = feeAmount
		tx.FeeAsset = feeAsset
		tx.HasFee = true
	}
	if feeUSDPresent {
		tx.FeeUSD = feeUSD
	}
	_ = sentPricePresent
	_ = receivedPricePresent

	if kindOK {
		switch kind {
		case model.Sell, model.Spend, model.Send, model.GiftSent:
			if !tx.HasSent {
				fail(model.ErrMissingRequiredField, "sent_asset/sent_amount", "sent asset and amount are required for "+string(kind))
			}
		case model.Buy, model.Receive, model.GiftReceived:
			if !tx.HasReceived {
				fail(model.ErrMissingRequiredField, "received_asset/received_amount", "received asset and amount are required for "+string(kind))
			}
		case model.Trade:
			if !tx.HasSent || !tx.HasReceived {
				fail(model.ErrMissingRequiredField, "sent/received", "both sent and received asset and amount are required for TRADE")
			}
		case model.Mining, model.Staking, model.Airdrop, model.Fork, model.Income:
			if !tx.HasReceived || tx.ReceivedUnitPriceUSD.IsZero() {
				fail(model.ErrMissingRequiredField, "received_asset_price_usd", "received asset, amount, and unit price are required for "+string(kind))
			}
		}
	}

	if !tsOK {
		return model.Transaction{}, diags, false
	}
	if hasError {
		return model.Transaction{}, diags, false
	}
	return tx, diags, true
}

// parseTimestamp parses an absolute instant. A missing "Z"/offset suffix is
// a warning, not an error; the instant is then assumed UTC.
func parseTimestamp(raw string, row int, fail func(kind, field, msg string), warn func(kind, field, msg string)) (time.Time, bool) {
	if raw == "" {
		fail(model.ErrMissingRequiredField, "date_time", "date_time is required")
		return time.Time{}, false
	}

	hasOffset := strings.HasSuffix(raw, "Z") || tzOffsetSuffix.MatchString(raw)

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05", raw)
	}
	if err != nil {
		fail(model.ErrInvalidDate, "date_time", "unparseable date_time: "+raw)
		return time.Time{}, false
	}
	if !hasOffset {
		warn(model.WarnMissingTimezone, "date_time", "date_time has no timezone; assuming UTC")
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	} else {
		t = t.UTC()
	}
	return t, true
}

// parseNumeric parses a blank-or-strictly-positive decimal field. Returns
// (value, present). A non-blank value that fails to parse or is <= 0 is a
// field error and present is reported as true so callers still see the
// blank-equivalent zero value without double-erroring on absence.
func parseNumeric(raw string, row int, field string, fail func(kind, field, msg string)) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		fail(model.ErrInvalidNumber, field, "could not parse "+field+": "+raw)
		return decimal.Zero, true
	}
	if d.Sign() <= 0 {
		fail(model.ErrNonPositiveAmount, field, field+" must be strictly positive: "+raw)
		return decimal.Zero, true
	}
	return d, true
}

// parseFeeUSD is the one numeric column exempt from the strictly-positive
// rule (spec.md §6): blank, zero, or positive are all accepted.
func parseFeeUSD(raw string, row int, fail func(kind, field, msg string)) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		fail(model.ErrInvalidNumber, "fee_usd", "could not parse fee_usd: "+raw)
		return decimal.Zero, true
	}
	if d.Sign() < 0 {
		fail(model.ErrNonPositiveAmount, "fee_usd", "fee_usd must not be negative: "+raw)
		return decimal.Zero, true
	}
	return d, true
}
