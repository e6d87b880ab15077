package telegram

import (
	"context"

	"go.uber.org/fx"

	"signal_bot/internal/modules/telegram/service"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewBot,
			fx.Annotate(service.NewTitles, fx.As(new(service.TitleResolver))),
			service.NewIntake,
			service.NewListener,
		),
		fx.Invoke(func(lc fx.Lifecycle, l *service.Listener, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go l.Listen(ctx)
					return nil
				},
			})
		}),
	)
}
