package model

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ SignalsModel = (*defaultSignalsModel)(nil)

// Signals is one trend flip recorded for a ticker on a trading day. The
// (ticker, signal_date) pair is unique so a day's rescan never duplicates it.
type Signals struct {
	Id            int64     `db:"id"`
	Ticker        string    `db:"ticker"`
	SignalDate    time.Time `db:"signal_date"`
	Direction     string    `db:"direction"`
	PriceAtSignal float64   `db:"price_at_signal"`
	HiloValue     float64   `db:"hilo_value"`
	Processed     bool      `db:"processed"`
	CreatedAt     time.Time `db:"created_at"`
}

type (
	SignalsModel interface {
		Insert(ctx context.Context, data *Signals) (int64, error)
		FindOneByTickerDate(ctx context.Context, ticker string, signalDate time.Time) (*Signals, error)
	}

	defaultSignalsModel struct {
		conn sqlx.SqlConn
	}
)

// NewSignalsModel returns a model for the signals table.
func NewSignalsModel(conn sqlx.SqlConn) SignalsModel {
	return &defaultSignalsModel{conn: conn}
}

func (m *defaultSignalsModel) Insert(ctx context.Context, data *Signals) (int64, error) {
	const query = `
INSERT INTO public.signals (ticker, signal_date, direction, price_at_signal, hilo_value, processed)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	var id int64
	err := m.conn.QueryRowCtx(ctx, &id, query,
		data.Ticker,
		data.SignalDate.Format("2006-01-02"),
		data.Direction,
		data.PriceAtSignal,
		data.HiloValue,
		data.Processed,
	)
	if err != nil {
		return 0, fmt.Errorf("signals.Insert: %w", err)
	}
	return id, nil
}

func (m *defaultSignalsModel) FindOneByTickerDate(ctx context.Context, ticker string, signalDate time.Time) (*Signals, error) {
	const query = `
SELECT id, ticker, signal_date, direction, price_at_signal, hilo_value, processed, created_at
FROM public.signals
WHERE ticker = $1 AND signal_date = $2
LIMIT 1`

	var row Signals
	err := m.conn.QueryRowCtx(ctx, &row, query, ticker, signalDate.Format("2006-01-02"))
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("signals.FindOneByTickerDate: %w", err)
	}
}
