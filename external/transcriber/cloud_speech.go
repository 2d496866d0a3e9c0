package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/foxseedlab/speechstream/internal/errorsx"
	"github.com/foxseedlab/speechstream/internal/transcriber"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

	// DefaultAudioMessageBytes is the largest audio payload sent in one request.
	DefaultAudioMessageBytes = 25600
)

type CloudSpeechConfig struct {
	CredentialsJSON      string
	Endpoint             string
	MaxAudioMessageBytes int
}

type CloudSpeechTranscriber struct {
	credentialsJSON string
	endpoint        string
	chunkBytes      int
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig) transcriber.Transcriber {
	chunkBytes := cfg.MaxAudioMessageBytes
	if chunkBytes <= 0 {
		chunkBytes = DefaultAudioMessageBytes
	}
	return &CloudSpeechTranscriber{
		credentialsJSON: cfg.CredentialsJSON,
		endpoint:        strings.TrimSpace(cfg.Endpoint),
		chunkBytes:      chunkBytes,
	}
}

func (t *CloudSpeechTranscriber) StartStreaming(ctx context.Context, sessionID string, cfg transcriber.StreamConfig) (transcriber.Stream, error) {
	slog.Info("starting cloud speech streaming", "session_id", sessionID, "language", cfg.Language, "sample_rate_hertz", cfg.SampleRateHertz, "model", cfg.Model)

	opts, err := t.clientOptions()
	if err != nil {
		return nil, err
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("create speech client: %w", err), errorsx.KindTransport)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := client.StreamingRecognize(streamCtx)
	if err != nil {
		cancel()
		_ = client.Close()
		return nil, errorsx.Wrap(fmt.Errorf("open streaming recognize: %w", err), errorsx.KindTransport)
	}
	if err := stream.Send(streamingConfigRequest(cfg)); err != nil {
		cancel()
		_ = stream.CloseSend()
		_ = client.Close()
		return nil, errorsx.Wrap(fmt.Errorf("send streaming config: %w", err), errorsx.KindTransport)
	}
	slog.Info("cloud speech stream initialized", "session_id", sessionID)

	return newCloudStream(stream, cancel, client.Close, cfg.MaxAlternatives, t.chunkBytes), nil
}

func (t *CloudSpeechTranscriber) clientOptions() ([]option.ClientOption, error) {
	detect := &credentials.DetectOptions{Scopes: []string{cloudPlatformScope}}
	if t.credentialsJSON != "" {
		detect.CredentialsJSON = []byte(t.credentialsJSON)
	}
	creds, err := credentials.DetectDefault(detect)
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("detect credentials: %w", err), errorsx.KindConfiguration)
	}
	opts := []option.ClientOption{option.WithAuthCredentials(creds)}
	if t.endpoint != "" {
		opts = append(opts, option.WithEndpoint(t.endpoint))
	}
	return opts, nil
}

func streamingConfigRequest(cfg transcriber.StreamConfig) *speechpb.StreamingRecognizeRequest {
	return &speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(cfg.SampleRateHertz),
					LanguageCode:    cfg.Language,
					Model:           string(cfg.Model),
					MaxAlternatives: int32(cfg.MaxAlternatives),
				},
				InterimResults: cfg.InterimResults,
			},
		},
	}
}

type cloudStream struct {
	cancel          context.CancelFunc
	closeFn         func() error
	maxAlternatives int
	chunkBytes      int

	// held for a whole frame so chunks of concurrent frames never interleave
	mu     sync.Mutex
	closed atomic.Bool
	stream speechpb.Speech_StreamingRecognizeClient

	// owned by the single Recv caller
	pending []transcriber.Result

	closeOnce sync.Once
	closeErr  error
}

func newCloudStream(stream speechpb.Speech_StreamingRecognizeClient, cancel context.CancelFunc, closeFn func() error, maxAlternatives, chunkBytes int) *cloudStream {
	if chunkBytes <= 0 {
		chunkBytes = DefaultAudioMessageBytes
	}
	return &cloudStream{
		cancel:          cancel,
		closeFn:         closeFn,
		maxAlternatives: maxAlternatives,
		chunkBytes:      chunkBytes,
		stream:          stream,
	}
}

// Write sends pcm as consecutive audio messages of at most chunkBytes each.
func (s *cloudStream) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(pcm) > 0 {
		if s.closed.Load() {
			return transcriber.ErrStreamClosed
		}
		n := min(len(pcm), s.chunkBytes)
		if err := s.send(pcm[:n]); err != nil {
			return err
		}
		pcm = pcm[n:]
	}
	return nil
}

func (s *cloudStream) send(chunk []byte) error {
	err := s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: chunk,
		},
	})
	if err == nil {
		return nil
	}
	if s.closed.Load() || isCanceled(err) {
		return transcriber.ErrStreamClosed
	}
	if errors.Is(err, io.EOF) {
		// gRPC reports the real status on Recv; Send only sees EOF.
		return errorsx.New(errorsx.KindTransport, "send audio: remote ended the stream")
	}
	return errorsx.Wrap(fmt.Errorf("send audio: %w", err), errorsx.KindTransport)
}

func (s *cloudStream) Recv() (transcriber.Result, error) {
	for len(s.pending) == 0 {
		resp, err := s.stream.Recv()
		if err != nil {
			return transcriber.Result{}, s.recvError(err)
		}
		if st := resp.GetError(); st != nil && codes.Code(st.GetCode()) != codes.OK {
			return transcriber.Result{}, errorsx.New(errorsx.KindProtocol, "recognition failed: %s (code %s)", st.GetMessage(), codes.Code(st.GetCode()))
		}
		s.pending = append(s.pending, s.resultsFrom(resp)...)
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	return next, nil
}

func (s *cloudStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.mu.Lock()
		_ = s.stream.CloseSend()
		s.mu.Unlock()
		s.closeErr = s.closeFn()
	})
	return s.closeErr
}

func (s *cloudStream) recvError(err error) error {
	if s.closed.Load() || isCanceled(err) {
		return transcriber.ErrStreamClosed
	}
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return errorsx.Wrap(fmt.Errorf("receive results: %w", err), errorsx.KindTransport)
}

func (s *cloudStream) resultsFrom(resp *speechpb.StreamingRecognizeResponse) []transcriber.Result {
	results := make([]transcriber.Result, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		results = append(results, transcriber.Result{
			Text:    joinAlternatives(alternatives, s.maxAlternatives),
			IsFinal: result.GetIsFinal(),
		})
	}
	return results
}

// joinAlternatives keeps the top hypothesis verbatim. When several were
// requested, they are trimmed and joined with ';'.
func joinAlternatives(alternatives []*speechpb.SpeechRecognitionAlternative, maxAlternatives int) string {
	if maxAlternatives <= 1 || len(alternatives) == 1 {
		return alternatives[0].GetTranscript()
	}
	texts := make([]string, 0, len(alternatives))
	for _, alt := range alternatives {
		if text := strings.TrimSpace(alt.GetTranscript()); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, ";")
}

func isCanceled(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return status.Code(err) == codes.Canceled
}
