package session

import (
	"github.com/foxseedlab/speechstream/internal/config"
	"github.com/foxseedlab/speechstream/internal/eventlog"
	"github.com/foxseedlab/speechstream/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Session, error) {
		cfg := do.MustInvoke[*config.Config](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		events := do.MustInvoke[*eventlog.Log](i)
		return New(stt, events, Options{
			MaxAlternatives: cfg.MaxAlternatives,
			InterimResults:  cfg.InterimResults,
			OpenTimeout:     cfg.OpenTimeout,
			CloseTimeout:    cfg.CloseTimeout,
		}), nil
	})
}
