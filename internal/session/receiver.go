package session

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/foxseedlab/speechstream/internal/errorsx"
	"github.com/foxseedlab/speechstream/internal/transcriber"
)

func (s *Session) receive(act *activation) {
	defer close(act.done)
	slog.Info("transcriber receive loop started", "session_id", act.id)
	var finals, partials int
	for {
		result, err := act.stream.Recv()
		if err != nil {
			s.handleReceiveError(act, err)
			slog.Info("transcriber receive loop finished", "session_id", act.id, "final_results", finals, "partial_results", partials)
			return
		}
		if !result.IsFinal {
			partials++
			slog.Debug("discarding partial result", "session_id", act.id, "text", result.Text)
			continue
		}
		if strings.TrimSpace(result.Text) == "" {
			continue
		}
		if !s.appendSegment(act, result.Text) {
			slog.Info("dropping final result of a closed session", "session_id", act.id)
			continue
		}
		finals++
	}
}

// appendSegment reports false when act is no longer the current activation.
func (s *Session) appendSegment(act *activation, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != act {
		return false
	}
	s.transcript.WriteString(text)
	return true
}

func (s *Session) isCurrent(act *activation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == act
}

func (s *Session) handleReceiveError(act *activation, err error) {
	if errors.Is(err, transcriber.ErrStreamClosed) || !s.isCurrent(act) {
		slog.Info("transcriber receive loop stopped", "session_id", act.id, "reason", err.Error())
		return
	}
	if errors.Is(err, io.EOF) {
		err = errorsx.New(errorsx.KindTransport, "remote side ended the transcription stream of session %s", act.id)
	} else {
		err = errorsx.Wrap(err, errorsx.KindTransport)
	}
	slog.Error("transcriber stream error", "error", err, "kind", errorsx.KindOf(err), "session_id", act.id)
	s.events.Log(errorsx.Describe(err))
}

func encodePCM(samples []int16) []byte {
	buf := make([]byte, 0, len(samples)*bytesPerSample)
	for _, v := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(v))
	}
	return buf
}
