package media

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"bookline/config"
)

// Transcriber converts customer voice notes into text for the model.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// SpeechTranscriber implements Transcriber on Google Cloud Speech.
type SpeechTranscriber struct {
	client *speech.Client
}

// NewSpeechTranscriber builds the client from the configured service
// account credentials.
func NewSpeechTranscriber(ctx context.Context) (*SpeechTranscriber, error) {
	client, err := speech.NewClient(ctx,
		option.WithCredentialsFile(config.AppConfig.GoogleCredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &SpeechTranscriber{client: client}, nil
}

// Transcribe recognizes a short voice note. WhatsApp voice notes arrive
// as Opus in an Ogg container at 16 kHz.
func (t *SpeechTranscriber) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	encoding := speechpb.RecognitionConfig_OGG_OPUS
	if strings.Contains(mimeType, "mpeg") || strings.Contains(mimeType, "mp3") {
		encoding = speechpb.RecognitionConfig_MP3
	}

	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            16000,
			LanguageCode:               "en-US",
			AlternativeLanguageCodes:   []string{"es-ES", "pt-BR"},
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var sb strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			sb.WriteString(result.Alternatives[0].Transcript)
			sb.WriteString(" ")
		}
	}
	transcript := strings.TrimSpace(sb.String())
	if transcript == "" {
		return "", fmt.Errorf("no speech recognized")
	}
	return transcript, nil
}
