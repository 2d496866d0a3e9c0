package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/speechstream/internal/eventlog"
	"github.com/foxseedlab/speechstream/internal/transcriber"
)

type recvItem struct {
	result transcriber.Result
	err    error
}

type fakeStream struct {
	mu         sync.Mutex
	writes     [][]byte
	writeErr   error
	closeCalls int

	results     chan recvItem
	closed      chan struct{}
	closeOnce   sync.Once
	ignoreClose bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		results: make(chan recvItem),
		closed:  make(chan struct{}),
	}
}

func (f *fakeStream) Write(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.closed:
		return transcriber.ErrStreamClosed
	default:
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), pcm...))
	return nil
}

func (f *fakeStream) Recv() (transcriber.Result, error) {
	if f.ignoreClose {
		item, ok := <-f.results
		if !ok {
			return transcriber.Result{}, io.EOF
		}
		return item.result, item.err
	}
	select {
	case item, ok := <-f.results:
		if !ok {
			return transcriber.Result{}, io.EOF
		}
		return item.result, item.err
	case <-f.closed:
		return transcriber.Result{}, transcriber.ErrStreamClosed
	}
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	f.closeCalls++
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

// emit blocks until the receiver loop has taken the result.
func (f *fakeStream) emit(t *testing.T, text string, isFinal bool) {
	t.Helper()
	select {
	case f.results <- recvItem{result: transcriber.Result{Text: text, IsFinal: isFinal}}:
	case <-time.After(time.Second):
		t.Fatalf("receiver did not take result %q", text)
	}
}

func (f *fakeStream) fail(t *testing.T, err error) {
	t.Helper()
	select {
	case f.results <- recvItem{err: err}:
	case <-time.After(time.Second):
		t.Fatalf("receiver did not take error %v", err)
	}
}

func (f *fakeStream) endRemote() {
	close(f.results)
}

func (f *fakeStream) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeStream) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

type fakeTranscriber struct {
	mu       sync.Mutex
	streams  []*fakeStream
	configs  []transcriber.StreamConfig
	startErr error

	// streams opened from now on only stop when the remote side ends them
	ignoreClose bool

	// when set, StartStreaming waits for release or ctx cancellation
	release chan struct{}
	started chan struct{}
}

func (f *fakeTranscriber) StartStreaming(ctx context.Context, _ string, cfg transcriber.StreamConfig) (transcriber.Stream, error) {
	f.mu.Lock()
	f.configs = append(f.configs, cfg)
	release, started, startErr, ignoreClose := f.release, f.started, f.startErr, f.ignoreClose
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if startErr != nil {
		return nil, startErr
	}
	stream := newFakeStream()
	stream.ignoreClose = ignoreClose
	f.mu.Lock()
	f.streams = append(f.streams, stream)
	f.mu.Unlock()
	return stream, nil
}

func (f *fakeTranscriber) lastStream(t *testing.T) *fakeStream {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.streams) == 0 {
		t.Fatal("no stream was opened")
	}
	return f.streams[len(f.streams)-1]
}

func (f *fakeTranscriber) startCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.configs)
}

func testOptions() Options {
	return Options{
		MaxAlternatives: 1,
		OpenTimeout:     time.Second,
		CloseTimeout:    time.Second,
	}
}

func newTestEvents() *eventlog.Log {
	return eventlog.New()
}

func newTestSession(stt *fakeTranscriber) (*Session, *eventlog.Log) {
	events := newTestEvents()
	return New(stt, events, testOptions()), events
}

func validParams() Params {
	return Params{Language: "en-US", SampleRateHertz: 16000, Model: "default"}
}

func bufferedText(s *Session) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.String()
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(message)
}

var errBoom = errors.New("boom")
