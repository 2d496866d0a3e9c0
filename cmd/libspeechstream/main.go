// Command libspeechstream builds the C shared library:
//
//	go build -buildmode=c-shared -o libspeechstream.so ./cmd/libspeechstream
//
// Functions returning speechstream_bool use SPEECHSTREAM_TRUE (1) and
// SPEECHSTREAM_FALSE (0).
// Returned strings belong to the library and stay valid until the next call
// of the same function.
package main

/*
#include <stdlib.h>

typedef enum {
	SPEECHSTREAM_FALSE = 0,
	SPEECHSTREAM_TRUE = 1
} speechstream_bool;
*/
import "C"

import (
	"log/slog"
	"os"
	"sync"
	"unsafe"

	configloader "github.com/foxseedlab/speechstream/external/config"
	transcriberimpl "github.com/foxseedlab/speechstream/external/transcriber"
	"github.com/foxseedlab/speechstream/internal/bridge"
	"github.com/foxseedlab/speechstream/internal/config"
	"github.com/foxseedlab/speechstream/internal/eventlog"
	"github.com/foxseedlab/speechstream/internal/session"
	"github.com/samber/do/v2"
)

var (
	events = eventlog.New()

	bootOnce sync.Once
	adapter  *bridge.Adapter

	returnedMu      sync.Mutex
	returnedStrings = map[string]*C.char{}
)

func loadAdapter() *bridge.Adapter {
	bootOnce.Do(func() {
		cfg, err := configloader.Load()
		if err != nil {
			events.Logf("configuration error: %v", err)
			return
		}
		initLogger(cfg)
		slog.Info("startup: configuration loaded", "env", cfg.Env)

		a, err := do.Invoke[*bridge.Adapter](setupDI(cfg))
		if err != nil {
			events.Logf("configuration error: failed to resolve session: %v", err)
			return
		}
		adapter = a
	})
	return adapter
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	// stdout belongs to the host application.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, events)
	transcriberimpl.RegisterDI(injector)
	session.RegisterDI(injector)
	bridge.RegisterDI(injector)

	return injector
}

// transientCString frees the string previously returned from the same slot.
func transientCString(slot, s string) *C.char {
	returnedMu.Lock()
	defer returnedMu.Unlock()
	if prev := returnedStrings[slot]; prev != nil {
		C.free(unsafe.Pointer(prev))
	}
	cs := C.CString(s)
	returnedStrings[slot] = cs
	return cs
}

func cBool(b bridge.Bool) C.speechstream_bool {
	return C.speechstream_bool(b)
}

func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

//export InitializeStream
func InitializeStream(cLanguage *C.char, cSampleRate C.int, cModel *C.char) C.speechstream_bool {
	a := loadAdapter()
	if a == nil {
		return cBool(bridge.False)
	}
	return cBool(a.InitializeStream(goString(cLanguage), int(cSampleRate), goString(cModel)))
}

// Deprecated: use InitializeStream.
//
//export InitializeStreamDefaultModel
func InitializeStreamDefaultModel(cLanguage *C.char, cSampleRate C.int) C.speechstream_bool {
	a := loadAdapter()
	if a == nil {
		return cBool(bridge.False)
	}
	return cBool(a.InitializeStreamDefaultModel(goString(cLanguage), int(cSampleRate)))
}

//export SendAudio
func SendAudio(recording *C.short, recordingLength C.int) C.speechstream_bool {
	a := loadAdapter()
	if a == nil {
		return cBool(bridge.False)
	}
	var samples []int16
	if recording != nil && recordingLength > 0 {
		samples = unsafe.Slice((*int16)(unsafe.Pointer(recording)), int(recordingLength))
	}
	return cBool(a.SendAudio(samples))
}

//export ReceiveTranscript
func ReceiveTranscript() *C.char {
	text := ""
	if a := loadAdapter(); a != nil {
		text = a.ReceiveTranscript()
	}
	return transientCString("ReceiveTranscript", text)
}

//export ReceiveTranscriptInto
func ReceiveTranscriptInto(output **C.char) C.speechstream_bool {
	a := loadAdapter()
	if a == nil {
		return cBool(bridge.False)
	}
	if output == nil {
		return cBool(a.ReceiveTranscriptInto(nil))
	}
	var text string
	ok := a.ReceiveTranscriptInto(&text)
	if ok == bridge.True {
		*output = transientCString("ReceiveTranscriptInto", text)
	}
	return cBool(ok)
}

//export GetLog
func GetLog() *C.char {
	return transientCString("GetLog", events.Get())
}

//export IsInitialized
func IsInitialized() C.speechstream_bool {
	a := loadAdapter()
	if a == nil {
		return cBool(bridge.False)
	}
	return cBool(a.IsInitialized())
}

//export CloseStream
func CloseStream() C.speechstream_bool {
	a := loadAdapter()
	if a == nil {
		return cBool(bridge.True)
	}
	return cBool(a.CloseStream())
}

func main() {}
