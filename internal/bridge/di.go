package bridge

import (
	"github.com/foxseedlab/speechstream/internal/eventlog"
	"github.com/foxseedlab/speechstream/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Adapter, error) {
		s := do.MustInvoke[*session.Session](i)
		events := do.MustInvoke[*eventlog.Log](i)
		return NewAdapter(s, events), nil
	})
}
