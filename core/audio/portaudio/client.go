package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/miralabs/mira-core/core/audio"
)

// Client is a blocking-I/O alternative to the miniaudio backend, useful where
// miniaudio's callback devices are unavailable. Capture and playback share one
// duplex stream.
type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	pending []byte
	bufMu   sync.Mutex

	in  []int16
	out []int16

	closeOnce sync.Once
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}, nil
}

// Stream reads microphone frames until ctx is cancelled. A failed read is
// logged and the frame dropped; the stream keeps going.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.stream.Read(); err != nil {
				log.Printf("Failed to read from portaudio stream: %v", err)
				continue
			}

			audioBuffer := bytes.Buffer{}
			_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)
			onAudio(audioBuffer.Bytes())
		}
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.stream.Close()
		_ = portaudio.Terminate()
	})
}

// SendAudio plays whole device buffers and keeps the remainder queued for the
// next call.
func (c *Client) SendAudio(audio []byte) error {
	c.bufMu.Lock()
	defer c.bufMu.Unlock()

	frameBytes := c.bufferSize * 2
	c.pending = append(c.pending, audio...)
	for len(c.pending) >= frameBytes {
		if err := binary.Read(bytes.NewBuffer(c.pending[:frameBytes]), binary.LittleEndian, c.out); err != nil {
			log.Printf("Failed to frame playback audio: %v", err)
			c.pending = c.pending[frameBytes:]
			continue
		}
		if err := c.stream.Write(); err != nil {
			log.Printf("Failed to write to portaudio stream: %v", err)
		}
		c.pending = c.pending[frameBytes:]
	}

	return nil
}

func (c *Client) ClearBuffer() {
	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	c.pending = nil
}

// Mark flushes what is queued and reports the mark as played. Writes on this
// backend block until the device accepts them, so a drained queue means the
// audio has been handed over.
func (c *Client) Mark(mark string, onPlayed func(string)) error {
	c.bufMu.Lock()
	defer c.bufMu.Unlock()

	frameBytes := c.bufferSize * 2
	if len(c.pending) > 0 {
		padded := make([]byte, frameBytes)
		copy(padded, c.pending)
		if err := binary.Read(bytes.NewBuffer(padded), binary.LittleEndian, c.out); err == nil {
			if err := c.stream.Write(); err != nil {
				log.Printf("Failed to write to portaudio stream: %v", err)
			}
		}
		c.pending = nil
	}

	if onPlayed != nil {
		go onPlayed(mark)
	}
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
