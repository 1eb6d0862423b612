package svc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hiloscan/internal/config"
	"hiloscan/internal/svc"
)

// A bare config must still produce a usable context: scanner defaults are
// applied and optional collaborators stay nil instead of failing startup.
func TestNewServiceContextWithoutStorage(t *testing.T) {
	cfg := config.Config{Env: "test"}

	svcCtx := svc.NewServiceContext(cfg, "etc/hiloscan.yaml")
	require.NotNil(t, svcCtx)

	require.Nil(t, svcCtx.DBConn)
	require.Nil(t, svcCtx.Redis)
	require.Nil(t, svcCtx.Repos)
	require.Nil(t, svcCtx.Notifier)
	require.Nil(t, svcCtx.Scanner, "scanner needs market, postgres and notifier")

	require.NotNil(t, svcCtx.ScannerConfig)
	require.Equal(t, 10, svcCtx.ScannerConfig.TrendPeriod)
	require.InDelta(t, 50.0, svcCtx.ScannerConfig.ProfitTargetPercent, 1e-9)
	require.True(t, svcCtx.ScannerConfig.Enabled)

	// Zero TTL config falls back to the cache package defaults.
	require.Equal(t, 30*time.Second, svcCtx.TTL.Short)
	require.Equal(t, 5*time.Minute, svcCtx.TTL.Medium)
	require.Equal(t, time.Hour, svcCtx.TTL.Long)
}
