// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package model holds the value types shared by every stage of the tax
// engine: transactions, tax lots, realized events, and diagnostics. Nothing
// in this package mutates state owned by another package.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the closed set of transaction kinds the engine understands.
type Kind string

const (
	Buy          Kind = "BUY"
	Sell         Kind = "SELL"
	Trade        Kind = "TRADE"
	Send         Kind = "SEND"
	Receive      Kind = "RECEIVE"
	Mining       Kind = "MINING"
	Staking      Kind = "STAKING"
	Airdrop      Kind = "AIRDROP"
	Fork         Kind = "FORK"
	Spend        Kind = "SPEND"
	GiftSent     Kind = "GIFT_SENT"
	GiftReceived Kind = "GIFT_RECEIVED"
	Income       Kind = "INCOME"
)

// Acquisitions is the set of kinds that add a lot rather than consume one.
var Acquisitions = map[Kind]bool{
	Buy:          true,
	GiftReceived: true,
	Receive:      true,
}

// IncomeKinds is the set of kinds recognized as ordinary income (spec.md §4.7).
var IncomeKinds = map[Kind]bool{
	Mining:  true,
	Staking: true,
	Airdrop: true,
	Fork:    true,
	Income:  true,
}

// DisposalKinds is the set of kinds that reduce inventory and realize gain/loss.
var DisposalKinds = map[Kind]bool{
	Sell:     true,
	Spend:    true,
	Trade:    true,
	GiftSent: true,
}

// Method is a lot-selection policy (spec.md §4.5).
type Method string

const (
	FIFO Method = "FIFO"
	LIFO Method = "LIFO"
	HIFO Method = "HIFO"
)

// Transaction is a single normalized, typed record in the canonical stream.
type Transaction struct {
	Timestamp time.Time
	Kind      Kind

	SentAsset        string
	SentAmount       decimal.Decimal
	SentUnitPriceUSD decimal.Decimal
	HasSent          bool

	ReceivedAsset        string
	ReceivedAmount       decimal.Decimal
	ReceivedUnitPriceUSD decimal.Decimal
	HasReceived          bool

	FeeAmount decimal.Decimal
	FeeAsset  string
	FeeUSD    decimal.Decimal
	HasFee    bool

	Wallet string
	TxHash string
	Notes  string

	// SyntheticID identifies a row that arrived without a tx_hash, so
	// diagnostics can still reference it. Minted once at parse time.
	SyntheticID string

	// SourceRow is the 1-based row number the transaction was parsed from,
	// used to break timestamp ties deterministically across files and as the
	// row of any diagnostic the tax engine raises for this transaction.
	SourceRow int
	// SourceFile records which input file contributed this row, used for
	// the same tie-break when multiple files are merged.
	SourceFile string
}

// TaxLot is a unit of inventory owned exclusively by a lotpool.Pool.
type TaxLot struct {
	ID                 int64
	Asset              string
	Remaining          decimal.Decimal
	Original           decimal.Decimal
	CostBasisPerUnit   decimal.Decimal
	AcquisitionInstant time.Time
	AcquisitionKind    Kind
	Wallet             string
}

// DisposalResult is a value-typed snapshot of one consumed lot's realization.
type DisposalResult struct {
	Asset              string
	AmountConsumed     decimal.Decimal
	DisposalInstant    time.Time
	DisposalKind       Kind
	Proceeds           decimal.Decimal
	CostBasis          decimal.Decimal
	GainOrLoss         decimal.Decimal
	LongTerm           bool
	DaysHeld           int64
	AcquisitionInstant time.Time
	LotID              int64
	Wallet             string
}

// IncomeEvent records ordinary income recognized at fair market value.
type IncomeEvent struct {
	Date   time.Time
	Kind   Kind
	Asset  string
	Amount decimal.Decimal
	FMV    decimal.Decimal
	Wallet string
}

// ScheduleSummary is the Schedule-D-style aggregate for one tax year.
type ScheduleSummary struct {
	ShortTermGains  decimal.Decimal
	ShortTermLosses decimal.Decimal
	LongTermGains   decimal.Decimal
	LongTermLosses  decimal.Decimal
	NetShortTerm    decimal.Decimal
	NetLongTerm     decimal.Decimal
	Total           decimal.Decimal
}

// Severity distinguishes a dropped row/transaction from an informational note.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Error kinds (spec.md §7).
const (
	ErrMissingRequiredField   = "MissingRequiredField"
	ErrInvalidNumber          = "InvalidNumber"
	ErrNonPositiveAmount      = "NonPositiveAmount"
	ErrUnknownTransactionKind = "UnknownTransactionKind"
	ErrInvalidDate            = "InvalidDate"
	ErrInsufficientLots       = "InsufficientLots"
	ErrNumericParse           = "NumericParse"
)

// Warning kinds (spec.md §7).
const (
	WarnMissingTimezone     = "MissingTimezone"
	WarnNormalizationRemap  = "NormalizationRemap"
	WarnOracleFetchFailed   = "OracleFetchFailed"
	WarnOracleEmpty         = "OracleEmpty"
	WarnAutoFilledPrice     = "AutoFilledPrice"
	WarnObfuscatedCostBasis = "ObfuscatedCostBasis"
	WarnFeeDisposalSkipped  = "FeeDisposalSkipped"
)

// Diagnostic is a single error or warning surfaced by any stage of the
// pipeline. Row is 1-based and includes the header row where applicable.
type Diagnostic struct {
	Severity Severity
	Row      int
	Field    string
	KindTag  string
	Message  string
}

func NewError(kindTag string, row int, field, message string) Diagnostic {
	return Diagnostic{Severity: SeverityError, Row: row, Field: field, KindTag: kindTag, Message: message}
}

func NewWarning(kindTag string, row int, field, message string) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Row: row, Field: field, KindTag: kindTag, Message: message}
}
