package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/miralabs/mira-core/core/audio"
)

// Client owns a miniaudio context with one capture and one playback device,
// both running mono little-endian 16-bit PCM at the same sample rate.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	playbackClient
	captureClient

	encoding audio.EncodingInfo

	closeOnce sync.Once
}

type Option func(*config)

type config struct {
	sampleRate        int
	captureFrameCount uint32
	captureQueueSize  int
}

// WithSampleRate overrides the default capture/playback sample rate.
func WithSampleRate(sampleRate int) Option {
	return func(c *config) {
		if sampleRate > 0 {
			c.sampleRate = sampleRate
		}
	}
}

// WithCaptureFrameCount sets the number of samples delivered per captured
// frame.
func WithCaptureFrameCount(frames uint32) Option {
	return func(c *config) {
		if frames > 0 {
			c.captureFrameCount = frames
		}
	}
}

func NewClient(opts ...Option) (*Client, error) {
	cfg := config{
		sampleRate:        audio.DefaultSampleRate,
		captureFrameCount: 480,
		captureQueueSize:  64,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
		encoding: audio.EncodingInfo{
			SampleRate: cfg.sampleRate,
			Format:     audio.EncodingLinear16,
		},
	}

	if err := client.playbackClient.Init(audioCtx, cfg); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.captureClient.Init(audioCtx, cfg); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return &client, nil
}

// Stream starts the microphone and pumps captured frames to onAudio until ctx
// is cancelled. Frames are delivered in capture order; when the consumer
// falls behind, the oldest queued frames are dropped.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	return c.captureClient.Stream(ctx, onAudio)
}

func (c *Client) StartCapture() error {
	return c.captureClient.Start()
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

func (c *Client) StartPlayback() error {
	return c.playbackClient.Start()
}

func (c *Client) StopPlayback() error {
	return c.playbackClient.Stop()
}

// Close releases both devices and the underlying context. Safe to call more
// than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.captureClient.Uninit()
		_ = c.playbackClient.Uninit()
		if c.audioContext != nil {
			_ = c.audioContext.Uninit()
			c.audioContext.Free()
		}
	})
}

func (c *Client) SendAudio(audio []byte) error {
	return c.playbackClient.SendAudio(audio)
}

func (c *Client) ClearBuffer() {
	c.playbackClient.ClearBuffer()
}

func (c *Client) Mark(mark string, onReached func(string)) error {
	return c.playbackClient.Mark(mark, onReached)
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	if c.encoding.IsZero() {
		return audio.GetDefaultEncodingInfo()
	}
	return c.encoding
}
