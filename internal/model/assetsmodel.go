package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ AssetsModel = (*defaultAssetsModel)(nil)

type (
	AssetsModel interface {
		Tickers(ctx context.Context) ([]string, error)
		Insert(ctx context.Context, ticker string) error
	}

	defaultAssetsModel struct {
		conn sqlx.SqlConn
	}
)

// NewAssetsModel returns a model for the assets watch list table.
func NewAssetsModel(conn sqlx.SqlConn) AssetsModel {
	return &defaultAssetsModel{conn: conn}
}

func (m *defaultAssetsModel) Tickers(ctx context.Context) ([]string, error) {
	const query = `SELECT ticker FROM public.assets ORDER BY ticker`

	var tickers []string
	if err := m.conn.QueryRowsCtx(ctx, &tickers, query); err != nil {
		return nil, fmt.Errorf("assets.Tickers: %w", err)
	}
	return tickers, nil
}

func (m *defaultAssetsModel) Insert(ctx context.Context, ticker string) error {
	const query = `INSERT INTO public.assets (ticker) VALUES ($1) ON CONFLICT (ticker) DO NOTHING`

	if _, err := m.conn.ExecCtx(ctx, query, ticker); err != nil {
		return fmt.Errorf("assets.Insert: %w", err)
	}
	return nil
}
