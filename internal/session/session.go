// Package session owns the lifecycle of one streaming transcription session:
// it opens the remote stream, forwards audio, runs the receiver loop and
// accumulates final transcript text until the caller consumes it.
//
// Every field below mu is only touched while holding mu. Network I/O (opening
// the stream, Write, Recv, Close) always happens outside the lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/speechstream/internal/errorsx"
	"github.com/foxseedlab/speechstream/internal/eventlog"
	"github.com/foxseedlab/speechstream/internal/transcriber"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

const (
	recommendedSampleRateHertz = 16000
	bytesPerSample             = 2
)

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Params struct {
	Language        string
	SampleRateHertz int
	Model           string
}

type Options struct {
	MaxAlternatives int
	InterimResults  bool
	OpenTimeout     time.Duration
	CloseTimeout    time.Duration
}

type Session struct {
	transcriber transcriber.Transcriber
	events      *eventlog.Log
	opts        Options

	mu         sync.Mutex
	state      State
	current    *activation
	transcript strings.Builder
}

// activation is one Initialize..Close cycle.
type activation struct {
	id     string
	config transcriber.StreamConfig
	stream transcriber.Stream
	cancel context.CancelFunc
	done   chan struct{}
}

func New(stt transcriber.Transcriber, events *eventlog.Log, opts Options) *Session {
	return &Session{
		transcriber: stt,
		events:      events,
		opts:        opts,
	}
}

func (s *Session) Initialize(ctx context.Context, p Params) error {
	cfg, err := s.streamConfig(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.state
	if prev == StateActive || prev == StateInitializing {
		s.mu.Unlock()
		return errorsx.New(errorsx.KindConfiguration, "session is already %s; close it before initializing again", prev)
	}
	actx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	act := &activation{
		id:     uuid.NewString(),
		config: cfg,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.state = StateInitializing
	s.current = act
	s.mu.Unlock()

	slog.Info("initializing transcription session", "session_id", act.id, "language", cfg.Language, "sample_rate_hertz", cfg.SampleRateHertz, "model", cfg.Model)
	stream, openErr := s.open(ctx, actx, act)

	s.mu.Lock()
	if s.current != act {
		s.mu.Unlock()
		cancel()
		if stream != nil {
			_ = stream.Close()
		}
		slog.Warn("session closed while initializing", "session_id", act.id)
		return errorsx.New(errorsx.KindState, "session %s was closed while initializing", act.id)
	}
	if openErr != nil {
		s.state = prev
		s.current = nil
		s.mu.Unlock()
		cancel()
		slog.Error("failed to start transcriber streaming", "error", openErr, "session_id", act.id)
		return openErr
	}
	act.stream = stream
	s.state = StateActive
	s.transcript.Reset()
	go s.receive(act)
	s.mu.Unlock()

	if cfg.SampleRateHertz < recommendedSampleRateHertz {
		slog.Warn("sample rate below recommended minimum", "session_id", act.id, "sample_rate_hertz", cfg.SampleRateHertz, "recommended", recommendedSampleRateHertz)
	}
	slog.Info("session activated", "session_id", act.id)
	return nil
}

// open starts the remote stream, bounded by OpenTimeout and the caller's ctx.
// The stream itself lives on actx so it outlives the Initialize call.
func (s *Session) open(ctx, actx context.Context, act *activation) (transcriber.Stream, error) {
	timer := time.AfterFunc(s.opts.OpenTimeout, act.cancel)
	stopOnCallerCancel := context.AfterFunc(ctx, act.cancel)
	stream, err := s.transcriber.StartStreaming(actx, act.id, act.config)
	timedOut := !timer.Stop()
	stopOnCallerCancel()

	if err == nil && actx.Err() != nil {
		_ = stream.Close()
		stream = nil
		err = errorsx.New(errorsx.KindTransport, "opening transcription stream was interrupted")
	}
	if err == nil {
		return stream, nil
	}
	switch {
	case timedOut:
		return nil, errorsx.New(errorsx.KindTransport, "opening transcription stream timed out after %s", s.opts.OpenTimeout)
	case ctx.Err() != nil:
		return nil, errorsx.Wrap(fmt.Errorf("initialize: %w", ctx.Err()), errorsx.KindState)
	default:
		return nil, errorsx.Wrap(fmt.Errorf("open transcription stream: %w", err), errorsx.KindTransport)
	}
}

func (s *Session) streamConfig(p Params) (transcriber.StreamConfig, error) {
	lang := strings.TrimSpace(p.Language)
	if lang == "" {
		return transcriber.StreamConfig{}, errorsx.New(errorsx.KindConfiguration, "transcription language is required")
	}
	// Parse only validates. Deprecated codes such as iw-IL are still what the
	// remote documents, so the caller's tag is sent as given.
	if _, err := language.Parse(lang); err != nil {
		return transcriber.StreamConfig{}, errorsx.New(errorsx.KindConfiguration, "transcription language %q is not a valid BCP-47 tag: %v", lang, err)
	}
	if p.SampleRateHertz <= 0 {
		return transcriber.StreamConfig{}, errorsx.New(errorsx.KindConfiguration, "sample rate must be positive, got %d", p.SampleRateHertz)
	}
	model, err := transcriber.ParseModel(p.Model)
	if err != nil {
		return transcriber.StreamConfig{}, errorsx.Wrap(err, errorsx.KindConfiguration)
	}
	return transcriber.StreamConfig{
		Language:        lang,
		SampleRateHertz: p.SampleRateHertz,
		Model:           model,
		MaxAlternatives: s.opts.MaxAlternatives,
		InterimResults:  s.opts.InterimResults,
	}, nil
}

// SendAudio forwards one frame of any length. The stream splits it into
// messages without letting another frame in between.
func (s *Session) SendAudio(samples []int16) error {
	s.mu.Lock()
	if s.state != StateActive {
		state := s.state
		s.mu.Unlock()
		return errorsx.New(errorsx.KindState, "cannot send audio: session is %s", state)
	}
	act := s.current
	s.mu.Unlock()

	if len(samples) == 0 {
		return errorsx.New(errorsx.KindConfiguration, "audio frame is empty")
	}
	size := len(samples) * bytesPerSample

	if err := act.stream.Write(encodePCM(samples)); err != nil {
		if errors.Is(err, transcriber.ErrStreamClosed) {
			return errorsx.New(errorsx.KindState, "cannot send audio: session %s was closed", act.id)
		}
		slog.Error("failed to write pcm to transcriber stream", "error", err, "session_id", act.id, "pcm_bytes", size)
		return errorsx.Wrap(fmt.Errorf("send audio: %w", err), errorsx.KindTransport)
	}
	return nil
}

// ReceiveTranscript returns the final text accumulated since the previous call
// and clears it. It never waits for new results.
func (s *Session) ReceiveTranscript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := s.transcript.String()
	s.transcript.Reset()
	return text
}

func (s *Session) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateActive
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID returns the id of the current activation, or "" when there is none.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.id
}

// Close stops the session. It is a no-op when nothing is running. Buffered
// transcript text stays readable until the next Initialize.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	prev := s.state
	act := s.current
	if act == nil {
		s.mu.Unlock()
		return nil
	}
	s.current = nil
	s.state = StateClosed
	s.mu.Unlock()

	slog.Info("stopping session", "session_id", act.id, "previous_state", prev)
	act.cancel()
	if prev == StateInitializing {
		// Initialize closes the half-open stream itself once it sees the abort.
		return nil
	}

	closeErr := act.stream.Close()
	s.waitReceiver(ctx, act)
	if closeErr != nil {
		slog.Error("failed to close transcriber stream", "error", closeErr, "session_id", act.id)
		return errorsx.Wrap(fmt.Errorf("close transcription stream: %w", closeErr), errorsx.KindTransport)
	}
	slog.Info("session closed", "session_id", act.id)
	return nil
}

func (s *Session) waitReceiver(ctx context.Context, act *activation) {
	timer := time.NewTimer(s.opts.CloseTimeout)
	defer timer.Stop()
	select {
	case <-act.done:
	case <-timer.C:
		slog.Warn("receiver loop did not stop in time; abandoning it", "session_id", act.id, "timeout", s.opts.CloseTimeout)
	case <-ctx.Done():
		slog.Warn("close wait interrupted", "session_id", act.id, "error", ctx.Err())
	}
}
