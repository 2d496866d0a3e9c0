package transcriber

import (
	"github.com/foxseedlab/speechstream/internal/config"
	"github.com/foxseedlab/speechstream/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewCloudSpeechTranscriber(CloudSpeechConfig{
			CredentialsJSON:      c.GoogleCloudCredentialsJSON,
			Endpoint:             c.GoogleCloudSpeechEndpoint,
			MaxAudioMessageBytes: c.MaxAudioMessageBytes,
		}), nil
	})
}
