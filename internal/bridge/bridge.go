// Package bridge exposes the session through primitive-only calls for the C
// boundary. Booleans travel as Bool because cgo cannot carry a native bool,
// and every failure leaves a readable message in the event log.
package bridge

import (
	"context"

	"github.com/foxseedlab/speechstream/internal/errorsx"
	"github.com/foxseedlab/speechstream/internal/eventlog"
	"github.com/foxseedlab/speechstream/internal/session"
)

type Bool int32

const (
	False Bool = 0
	True  Bool = 1
)

func boolOf(v bool) Bool {
	if v {
		return True
	}
	return False
}

type Adapter struct {
	session *session.Session
	events  *eventlog.Log
}

func NewAdapter(s *session.Session, events *eventlog.Log) *Adapter {
	return &Adapter{session: s, events: events}
}

func (a *Adapter) InitializeStream(language string, sampleRateHertz int, model string) Bool {
	return a.result(a.session.Initialize(context.Background(), session.Params{
		Language:        language,
		SampleRateHertz: sampleRateHertz,
		Model:           model,
	}))
}

// InitializeStreamDefaultModel is the older two-argument variant.
//
// Deprecated: use InitializeStream with an explicit (or empty) model.
func (a *Adapter) InitializeStreamDefaultModel(language string, sampleRateHertz int) Bool {
	return a.InitializeStream(language, sampleRateHertz, "")
}

func (a *Adapter) SendAudio(samples []int16) Bool {
	return a.result(a.session.SendAudio(samples))
}

func (a *Adapter) ReceiveTranscript() string {
	return a.session.ReceiveTranscript()
}

// ReceiveTranscriptInto is the out-parameter variant of ReceiveTranscript.
func (a *Adapter) ReceiveTranscriptInto(out *string) Bool {
	if out == nil {
		return a.result(errorsx.New(errorsx.KindConfiguration, "receive transcript: output parameter is nil"))
	}
	*out = a.session.ReceiveTranscript()
	return True
}

func (a *Adapter) GetLog() string {
	return a.events.Get()
}

func (a *Adapter) IsInitialized() Bool {
	return boolOf(a.session.IsInitialized())
}

func (a *Adapter) CloseStream() Bool {
	return a.result(a.session.Close(context.Background()))
}

func (a *Adapter) result(err error) Bool {
	if err == nil {
		return True
	}
	a.events.Log(errorsx.Describe(err))
	return False
}
