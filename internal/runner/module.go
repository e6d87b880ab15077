package runner

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/exchange"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/position"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config, log *zap.Logger) (exchange.Gateway, error) {
				return exchange.New(ctx, cfg.Exchange, exchange.Creds{
					APIKey:    cfg.APIKey,
					APISecret: cfg.APISecret,
				}, log)
			},
			func(cfg *config.Config) position.Sizer {
				return position.NewSizer(cfg.Balance, cfg.RiskPct)
			},
			NewProcessor,
		),
		fx.Invoke(func(lc fx.Lifecycle, p *Processor, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go p.Run(ctx)
					return nil
				},
			})
		}),
	)
}
