package transcriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrStreamClosed is returned by Recv and Write after the stream was closed locally.
var ErrStreamClosed = errors.New("transcription stream closed")

type Model string

const (
	ModelDefault          Model = "default"
	ModelVideo            Model = "video"
	ModelPhoneCall        Model = "phone_call"
	ModelCommandAndSearch Model = "command_and_search"
)

// ParseModel maps a model name to a Model. An empty name selects ModelDefault.
func ParseModel(name string) (Model, error) {
	switch m := Model(strings.TrimSpace(name)); m {
	case "":
		return ModelDefault, nil
	case ModelDefault, ModelVideo, ModelPhoneCall, ModelCommandAndSearch:
		return m, nil
	default:
		return "", fmt.Errorf("unknown transcription model %q", name)
	}
}

type StreamConfig struct {
	Language        string
	SampleRateHertz int
	Model           Model
	MaxAlternatives int
	InterimResults  bool
}

type Result struct {
	Text    string
	IsFinal bool
}

// Stream is one open bidirectional transcription channel. Write may be called
// from several goroutines; Recv is called from a single receiver goroutine.
type Stream interface {
	Write(pcm []byte) error
	// Recv blocks until the next result. It returns io.EOF when the remote side
	// ended the stream and ErrStreamClosed after Close.
	Recv() (Result, error)
	Close() error
}

type Transcriber interface {
	StartStreaming(ctx context.Context, sessionID string, cfg StreamConfig) (Stream, error)
}
