// Package gemini implements the live.Channel transport against the Gemini
// Live API (BidiGenerateContent over WebSocket), plus a one-shot stylist
// critique built on the genai SDK.
package gemini

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core"
	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core/live"
)

// Client frames.

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model                    string           `json:"model"`
	GenerationConfig         generationConfig `json:"generationConfig"`
	SystemInstruction        *contentPayload  `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}        `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}        `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type contentPayload struct {
	Parts []partPayload `json:"parts"`
}

type partPayload struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Server frames.

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	GoAway        *goAway        `json:"goAway,omitempty"`
}

type serverContent struct {
	ModelTurn           *contentPayload `json:"modelTurn,omitempty"`
	InputTranscription  *transcription  `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription  `json:"outputTranscription,omitempty"`
	Interrupted         bool            `json:"interrupted,omitempty"`
	TurnComplete        bool            `json:"turnComplete,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}

type goAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

func buildSetup(cfg live.ChannelConfig) setupMessage {
	model := cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}

	payload := setupPayload{
		Model: model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}
	if cfg.Voice != "" {
		payload.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.SystemInstruction != "" {
		payload.SystemInstruction = &contentPayload{
			Parts: []partPayload{{Text: cfg.SystemInstruction}},
		}
	}
	return setupMessage{Setup: payload}
}

// parseServerMessage decodes one wire frame.
func parseServerMessage(data []byte) (serverMessage, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return serverMessage{}, core.NewMalformedResponseError("undecodable server frame: " + err.Error())
	}
	return msg, nil
}

// decodeServerMessage translates one wire frame into zero or more channel
// events, preserving the frame's internal order: transcripts first, then
// audio, then control signals.
func decodeServerMessage(data []byte) ([]live.Event, error) {
	msg, err := parseServerMessage(data)
	if err != nil {
		return nil, err
	}
	return msg.events()
}

// events translates the frame's serverContent, if any, into channel events.
func (msg serverMessage) events() ([]live.Event, error) {
	sc := msg.ServerContent
	if sc == nil {
		return nil, nil
	}

	var events []live.Event
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		events = append(events, &live.InputTranscriptionEvent{Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, &live.OutputTranscriptionEvent{Text: sc.OutputTranscription.Text})
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil || !strings.HasPrefix(part.InlineData.MimeType, "audio/pcm") {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, core.NewMalformedResponseError("undecodable audio chunk: " + err.Error())
			}
			events = append(events, &live.AudioChunkEvent{
				Data:       pcm,
				SampleRate: live.ParsePCMRate(part.InlineData.MimeType),
				Channels:   1,
			})
		}
	}
	if sc.Interrupted {
		events = append(events, &live.InterruptedEvent{})
	}
	if sc.TurnComplete {
		events = append(events, &live.TurnCompleteEvent{})
	}
	return events, nil
}
