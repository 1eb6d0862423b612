package model

import "github.com/zeromicro/go-zero/core/stores/sqlx"

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = sqlx.ErrNotFound
