package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ AppConfigModel = (*defaultAppConfigModel)(nil)

// Well-known app_config keys.
const (
	ConfigKeyWhatsAppNumber = "whatsapp_number"
)

type (
	AppConfigModel interface {
		Value(ctx context.Context, key string) (string, error)
	}

	defaultAppConfigModel struct {
		conn sqlx.SqlConn
	}
)

// NewAppConfigModel returns a model for the app_config key/value table.
func NewAppConfigModel(conn sqlx.SqlConn) AppConfigModel {
	return &defaultAppConfigModel{conn: conn}
}

func (m *defaultAppConfigModel) Value(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM public.app_config WHERE key = $1 LIMIT 1`

	var value string
	err := m.conn.QueryRowCtx(ctx, &value, query, key)
	switch err {
	case nil:
		return value, nil
	case sqlx.ErrNotFound:
		return "", ErrNotFound
	default:
		return "", fmt.Errorf("app_config.Value: %w", err)
	}
}
