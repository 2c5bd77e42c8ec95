package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	// pending holds audio that has been accepted but not yet pulled by the
	// device, with marks at byte offsets into it. Both are guarded by bufMu
	// because the data callback consumes them on the device thread.
	pending []byte
	marks   []playbackMark
	bufMu   sync.Mutex

	mu sync.Mutex
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext, cfg config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(cfg.sampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	c.config.Periods = 4

	c.audioContext = audioContext

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	c.ClearBuffer()
	return nil
}

func (c *playbackClient) SendAudio(audio []byte) error {
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return fmt.Errorf("device not started")
	}

	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	c.pending = append(c.pending, audio...)
	return nil
}

// ClearBuffer drops all queued audio and unreached marks, cutting playback
// off at the next device period.
func (c *playbackClient) ClearBuffer() {
	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	c.pending = nil
	c.marks = nil
}

// Mark registers a callback fired once every byte queued before it has been
// handed to the device.
func (c *playbackClient) Mark(mark string, onReached func(string)) error {
	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	c.marks = append(c.marks, playbackMark{
		name:     mark,
		position: len(c.pending),
		callback: onReached,
	})
	return nil
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil
	}

	c.device.Uninit()
	c.device = nil

	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.bufMu.Lock()
		reached := c.consumeMarksLocked(min(need, len(c.pending)))

		if len(c.pending) > 0 {
			n := copy(pOutput, c.pending[:min(need, len(c.pending))])
			if n == len(c.pending) {
				c.pending = nil
			} else {
				c.pending = c.pending[n:]
			}
		}
		c.bufMu.Unlock()

		if len(reached) > 0 {
			// callbacks run off the device thread
			go func() {
				for _, mark := range reached {
					if mark.callback != nil {
						mark.callback(mark.name)
					}
				}
			}()
		}
	}
}

func (c *playbackClient) consumeMarksLocked(until int) []playbackMark {
	passed := 0
	for i, mark := range c.marks {
		if mark.position > until {
			c.marks[i].position -= until
		} else {
			passed++
		}
	}
	if passed == 0 {
		return nil
	}

	reached := make([]playbackMark, passed)
	copy(reached, c.marks[:passed])
	c.marks = c.marks[passed:]
	return reached
}
