package signalpersist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"hiloscan/internal/model"
	"hiloscan/pkg/options"
	"hiloscan/pkg/scan"
)

// Service persists flip signals and reads the portfolio, backed by the
// Postgres models. It implements scan.SignalStore and scan.PositionBook.
type Service struct {
	signalsModel   model.SignalsModel
	optionsModel   model.OptionOpportunitiesModel
	portfolioModel model.PortfolioModel
}

// Config enumerates dependencies required to persist signals.
type Config struct {
	SQLConn        sqlx.SqlConn
	SignalsModel   model.SignalsModel
	OptionsModel   model.OptionOpportunitiesModel
	PortfolioModel model.PortfolioModel
}

var (
	_ scan.SignalStore  = (*Service)(nil)
	_ scan.PositionBook = (*Service)(nil)
)

// NewService wires a signal persistence service. Models default to the
// SQLConn-backed implementations when not injected.
func NewService(cfg Config) (*Service, error) {
	if cfg.SQLConn == nil && (cfg.SignalsModel == nil || cfg.OptionsModel == nil || cfg.PortfolioModel == nil) {
		return nil, errors.New("signalpersist: missing SQLConn dependency")
	}
	svc := &Service{
		signalsModel:   cfg.SignalsModel,
		optionsModel:   cfg.OptionsModel,
		portfolioModel: cfg.PortfolioModel,
	}
	if svc.signalsModel == nil {
		svc.signalsModel = model.NewSignalsModel(cfg.SQLConn)
	}
	if svc.optionsModel == nil {
		svc.optionsModel = model.NewOptionOpportunitiesModel(cfg.SQLConn)
	}
	if svc.portfolioModel == nil {
		svc.portfolioModel = model.NewPortfolioModel(cfg.SQLConn)
	}
	return svc, nil
}

// SaveSignal records a flip once per (ticker, date). A duplicate call for
// the same pair returns the existing row's id with isNew=false and writes
// nothing. The suggested contract, when present, lands in
// option_opportunities linked to the signal row.
func (s *Service) SaveSignal(ctx context.Context, sig *scan.Signal, option *options.Contract) (int64, bool, error) {
	if sig == nil {
		return 0, false, errors.New("signalpersist: nil signal")
	}

	existing, err := s.signalsModel.FindOneByTickerDate(ctx, sig.Ticker, sig.Date)
	switch {
	case err == nil:
		logx.WithContext(ctx).Infof("signal already recorded ticker=%s date=%s id=%d",
			sig.Ticker, sig.Date.Format("2006-01-02"), existing.Id)
		return existing.Id, false, nil
	case errors.Is(err, model.ErrNotFound):
		// first signal for this pair, fall through to insert
	default:
		return 0, false, fmt.Errorf("signalpersist: lookup signal: %w", err)
	}

	id, err := s.signalsModel.Insert(ctx, &model.Signals{
		Ticker:        sig.Ticker,
		SignalDate:    sig.Date,
		Direction:     string(sig.Direction),
		PriceAtSignal: sig.PriceAtSignal,
		HiloValue:     sig.ReferenceLevel,
		Processed:     true,
	})
	if err != nil {
		return 0, false, err
	}

	if option != nil && option.Symbol != scan.PlaceholderSymbol {
		row := &model.OptionOpportunities{
			SignalId:         id,
			TickerAsset:      sig.Ticker,
			TickerOption:     option.Symbol,
			OptionType:       string(option.Type),
			Strike:           option.Strike,
			ExpirationDate:   option.Expiration,
			PremiumAtSignal:  option.LastPrice,
			DistanceToStrike: options.TargetDistance(option),
			DaysToExpire:     int64(option.DTE),
		}
		if err := s.optionsModel.Insert(ctx, row); err != nil {
			// The signal row is already committed; losing the opportunity
			// row must not fail the cycle.
			logx.WithContext(ctx).Errorf("signalpersist: save opportunity signal_id=%d: %v", id, err)
		}
	}
	return id, true, nil
}

// OpenPositions returns the open portfolio entries for one underlying.
func (s *Service) OpenPositions(ctx context.Context, ticker string) ([]scan.Position, error) {
	rows, err := s.portfolioModel.OpenByAsset(ctx, ticker)
	if err != nil {
		return nil, err
	}
	positions := make([]scan.Position, 0, len(rows))
	for _, row := range rows {
		quantity := 0
		if row.Quantity.Valid {
			quantity = int(row.Quantity.Int64)
		}
		positions = append(positions, scan.Position{
			ContractSymbol: row.TickerOption,
			Underlying:     row.TickerAsset,
			Type:           options.Type(strings.ToUpper(row.OptionType)),
			EntryPrice:     row.EntryPrice,
			Quantity:       quantity,
		})
	}
	return positions, nil
}
