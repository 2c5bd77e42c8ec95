// Package deepgram implements streaming speech synthesis over the Deepgram
// speak v1 websocket.
package deepgram

import (
	"fmt"
	"slices"

	"github.com/miralabs/mira-core/core/audio"
)

type TextToSpeechClient struct {
	voice        Voice
	encodingInfo audio.EncodingInfo
}

type TextToSpeechClientOption func(*TextToSpeechClient)

func WithVoice(voice Voice) TextToSpeechClientOption {
	return func(c *TextToSpeechClient) {
		c.voice = voice
	}
}

func WithDefaultEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechClientOption {
	return func(c *TextToSpeechClient) {
		if !encodingInfo.IsZero() {
			c.encodingInfo = encodingInfo
		}
	}
}

func NewTextToSpeechClient(opts ...TextToSpeechClientOption) (*TextToSpeechClient, error) {
	client := &TextToSpeechClient{
		voice:        defaultVoice,
		encodingInfo: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(client)
	}

	if !slices.Contains(GetAvailableVoices(), client.voice) {
		return nil, fmt.Errorf("invalid voice: %s", client.voice)
	}

	return client, nil
}

func (c *TextToSpeechClient) SetVoice(voice Voice) error {
	if !slices.Contains(GetAvailableVoices(), voice) {
		return fmt.Errorf("invalid voice: %s", voice)
	}
	c.voice = voice
	return nil
}
