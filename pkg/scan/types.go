package scan

import (
	"context"
	"time"

	"hiloscan/pkg/hilo"
	"hiloscan/pkg/options"
)

// Direction labels a persisted signal.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Signal is one trend-flip record. At most one may exist per (ticker, date);
// the store enforces the uniqueness before insert.
type Signal struct {
	Ticker         string
	Date           time.Time
	Direction      Direction
	PriceAtSignal  float64
	ReferenceLevel float64
}

// Position is an open option position read from the trader's book. The
// scanner never mutates positions; it only derives exit alerts from them.
type Position struct {
	ContractSymbol string
	Underlying     string
	Type           options.Type
	EntryPrice     float64
	Quantity       int
}

// ExitAlertKind classifies an exit alert.
type ExitAlertKind string

const (
	// ExitInversion fires when a fresh flip contradicts an open position.
	ExitInversion ExitAlertKind = "INVERSION"
	// ExitProfitTarget fires when an open position reaches the configured
	// gain percentage.
	ExitProfitTarget ExitAlertKind = "PROFIT_TARGET"
)

// ExitAlert is an ephemeral portfolio-management alert, produced and
// consumed within one evaluation cycle.
type ExitAlert struct {
	Kind           ExitAlertKind
	ContractSymbol string
	Detail         string
}

// AssetResult is the outcome of one asset's evaluation cycle.
type AssetResult struct {
	Ticker    string
	Date      time.Time
	Close     float64
	Level     float64
	Trend     hilo.Trend
	Flipped   bool
	Direction Direction // set only when Flipped
	NearLevel bool

	Option     *options.Contract
	ExitAlerts []ExitAlert

	SignalID  int64
	NewSignal bool
	Notified  bool
}

// SignalStore persists flip signals. SaveSignal must be idempotent per
// (ticker, date): the second call for the same pair reports isNew=false and
// leaves the original record untouched.
type SignalStore interface {
	SaveSignal(ctx context.Context, sig *Signal, option *options.Contract) (id int64, isNew bool, err error)
}

// PositionBook reads the trader's open positions for one underlying.
type PositionBook interface {
	OpenPositions(ctx context.Context, ticker string) ([]Position, error)
}

// Notification is the payload handed to the notifier for one asset.
type Notification struct {
	Ticker   string
	Headline string
	// Option is the suggested contract. When a cycle produced exit alerts
	// but no qualifying contract, this is a placeholder (see
	// PlaceholderContract) so the management alert still goes out.
	Option *options.Contract
	// ExitAlert is the pre-rendered exit instruction block, empty when the
	// cycle produced no exit alerts.
	ExitAlert string
}

// Notifier delivers signal notifications and batch digests.
type Notifier interface {
	SendSignal(ctx context.Context, n Notification) error
	SendDigest(ctx context.Context, results []AssetResult) error
}

// PlaceholderSymbol marks a notification that carries only portfolio
// management alerts, with no suggested contract.
const PlaceholderSymbol = "PORTFOLIO"

// PlaceholderContract builds the minimal payload used when exit alerts must
// be delivered without a qualifying option.
func PlaceholderContract(underlying string) *options.Contract {
	return &options.Contract{
		Underlying: underlying,
		Symbol:     PlaceholderSymbol,
	}
}
