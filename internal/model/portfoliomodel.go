package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ PortfolioModel = (*defaultPortfolioModel)(nil)

// Status values used in the portfolio table.
const (
	PortfolioStatusOpen   = "Aberta"
	PortfolioStatusClosed = "Fechada"
)

// Portfolio is one option position held by the user.
type Portfolio struct {
	Id           int64           `db:"id"`
	TickerAsset  string          `db:"ticker_asset"`
	TickerOption string          `db:"ticker_option"`
	OptionType   string          `db:"option_type"`
	EntryPrice   float64         `db:"entry_price"`
	Quantity     sql.NullInt64   `db:"quantity"`
	Status       string          `db:"status"`
	ClosedAt     sql.NullTime    `db:"closed_at"`
	ExitPrice    sql.NullFloat64 `db:"exit_price"`
	CreatedAt    time.Time       `db:"created_at"`
}

type (
	PortfolioModel interface {
		OpenByAsset(ctx context.Context, tickerAsset string) ([]Portfolio, error)
	}

	defaultPortfolioModel struct {
		conn sqlx.SqlConn
	}
)

// NewPortfolioModel returns a model for the portfolio table.
func NewPortfolioModel(conn sqlx.SqlConn) PortfolioModel {
	return &defaultPortfolioModel{conn: conn}
}

func (m *defaultPortfolioModel) OpenByAsset(ctx context.Context, tickerAsset string) ([]Portfolio, error) {
	const query = `
SELECT id, ticker_asset, ticker_option, option_type, entry_price, quantity,
       status, closed_at, exit_price, created_at
FROM public.portfolio
WHERE ticker_asset = $1 AND status = $2
ORDER BY id`

	var rows []Portfolio
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, tickerAsset, PortfolioStatusOpen); err != nil {
		return nil, fmt.Errorf("portfolio.OpenByAsset: %w", err)
	}
	return rows, nil
}
