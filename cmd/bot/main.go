package main

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/telegram"
	"signal_bot/internal/runner"
	"signal_bot/internal/signals"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"
)

func main() {
	// корневой контекст пайплайна: его отмена будит консьюмера очереди
	// и останавливает приём сообщений
	ctx, cancel := context.WithCancel(context.Background())

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return ctx
			},
			func(cfg *config.Config) (*zap.Logger, error) {
				return logger.New(cfg.LogLevel)
			},
			func(lc fx.Lifecycle, cfg *config.Config) (opentracing.Tracer, error) {
				tracer, closer, err := tracing.InitTracer(tracing.Config{
					ServiceName: "signal_bot",
					Host:        cfg.JaegerHost,
					Port:        cfg.JaegerPort,
				})
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStop: func(_ context.Context) error {
						return closer()
					},
				})
				return tracer, nil
			},
			signals.NewQueue,
			signals.NewDedup,
		),
		config.Module(),
		runner.Module(),
		telegram.Module(),
		fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					cancel()
					_ = log.Sync()
					return nil
				},
			})
		}),
	)
	app.Run()
}
