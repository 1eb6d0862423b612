package model

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ OptionOpportunitiesModel = (*defaultOptionOpportunitiesModel)(nil)

// OptionOpportunities is the contract suggested alongside a signal.
type OptionOpportunities struct {
	Id               int64     `db:"id"`
	SignalId         int64     `db:"signal_id"`
	TickerAsset      string    `db:"ticker_asset"`
	TickerOption     string    `db:"ticker_option"`
	OptionType       string    `db:"option_type"`
	Strike           float64   `db:"strike"`
	ExpirationDate   time.Time `db:"expiration_date"`
	PremiumAtSignal  float64   `db:"premium_at_signal"`
	DistanceToStrike float64   `db:"distance_to_strike"`
	DaysToExpire     int64     `db:"days_to_expire"`
}

type (
	OptionOpportunitiesModel interface {
		Insert(ctx context.Context, data *OptionOpportunities) error
		FindBySignal(ctx context.Context, signalId int64) ([]OptionOpportunities, error)
	}

	defaultOptionOpportunitiesModel struct {
		conn sqlx.SqlConn
	}
)

// NewOptionOpportunitiesModel returns a model for the option_opportunities table.
func NewOptionOpportunitiesModel(conn sqlx.SqlConn) OptionOpportunitiesModel {
	return &defaultOptionOpportunitiesModel{conn: conn}
}

func (m *defaultOptionOpportunitiesModel) Insert(ctx context.Context, data *OptionOpportunities) error {
	const query = `
INSERT INTO public.option_opportunities
    (signal_id, ticker_asset, ticker_option, option_type, strike, expiration_date,
     premium_at_signal, distance_to_strike, days_to_expire)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := m.conn.ExecCtx(ctx, query,
		data.SignalId,
		data.TickerAsset,
		data.TickerOption,
		data.OptionType,
		data.Strike,
		data.ExpirationDate.Format("2006-01-02"),
		data.PremiumAtSignal,
		data.DistanceToStrike,
		data.DaysToExpire,
	)
	if err != nil {
		return fmt.Errorf("option_opportunities.Insert: %w", err)
	}
	return nil
}

func (m *defaultOptionOpportunitiesModel) FindBySignal(ctx context.Context, signalId int64) ([]OptionOpportunities, error) {
	const query = `
SELECT id, signal_id, ticker_asset, ticker_option, option_type, strike, expiration_date,
       premium_at_signal, distance_to_strike, days_to_expire
FROM public.option_opportunities
WHERE signal_id = $1
ORDER BY id`

	var rows []OptionOpportunities
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, signalId); err != nil {
		return nil, fmt.Errorf("option_opportunities.FindBySignal: %w", err)
	}
	return rows, nil
}
