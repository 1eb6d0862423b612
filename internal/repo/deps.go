package repo

import (
	"errors"

	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachepkg "hiloscan/internal/cache"
	"hiloscan/internal/model"
)

// Dependencies bundles the database models and shared infrastructure
// required by repository implementations.
type Dependencies struct {
	DBConn sqlx.SqlConn
	Redis  KV
	TTL    cachepkg.TTLSet

	AssetsModel    model.AssetsModel
	AppConfigModel model.AppConfigModel
}

// Set exposes strongly typed repositories to application logic.
type Set struct {
	Settings *Settings
}

// New constructs the repository set, validating required dependencies.
func New(deps Dependencies) (*Set, error) {
	if deps.DBConn == nil {
		return nil, errors.New("repo: missing DBConn dependency")
	}
	if deps.AssetsModel == nil {
		deps.AssetsModel = model.NewAssetsModel(deps.DBConn)
	}
	if deps.AppConfigModel == nil {
		deps.AppConfigModel = model.NewAppConfigModel(deps.DBConn)
	}

	return &Set{
		Settings: newSettings(deps),
	}, nil
}
