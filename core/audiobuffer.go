package orchestration

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/miralabs/mira-core/core/audio"
)

// audioBuffer queues synthesized audio between speech generation and
// playback. Marks interleave with audio at known positions so playback
// progress can be confirmed back from the audio output.
type audioBuffer struct {
	mu sync.Mutex

	encodingInfo audio.EncodingInfo

	audio          [][]byte
	allAudioLoaded bool

	internalPlayhead int
	externalPlayhead int

	lastMarkTimestamp time.Time

	marks []audioBufferMark

	stopped bool
	paused  bool

	updateSignal chan struct{}
}

type audioBufferMark struct {
	ID          string
	transcript  string
	position    int
	broadcasted bool
	confirmed   bool
}

func newAudioBuffer(encodingInfo audio.EncodingInfo) *audioBuffer {
	return &audioBuffer{
		encodingInfo: encodingInfo,
		updateSignal: make(chan struct{}, 1),
	}
}

func (b *audioBuffer) AddAudio(audio []byte) {
	b.mu.Lock()
	b.audio = append(b.audio, audio)
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *audioBuffer) Audio(yield func(audio audioOrMark) bool) {
	firstStart := sync.Once{}
	for {
		for {
			if ok := b.waitIfPaused(); !ok {
				return
			}

			audio, ok := b.consumeNextChunk()
			if !ok {
				break
			}

			firstStart.Do(func() {
				time.Sleep(50 * time.Millisecond)
				b.StartedPlaying()
			})

			if !yield(audioOrMark{Type: "audio", Audio: audio}) {
				return
			}
			if ok := b.broadcastMarks(yield); !ok {
				return
			}
		}
		if ok := b.waitForNextAudio(yield); !ok {
			return
		}
	}
}

func (b *audioBuffer) waitIfPaused() (ok bool) {
	for {
		b.mu.Lock()
		paused := b.paused
		stopped := b.stopped
		b.mu.Unlock()

		if stopped {
			return false
		}
		if !paused {
			return true
		}

		<-b.updateSignal
	}
}

func (b *audioBuffer) consumeNextChunk() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.audio) <= b.internalPlayhead {
		return nil, false
	}

	audio := b.audio[b.internalPlayhead]
	b.internalPlayhead++
	return audio, true
}

func (b *audioBuffer) broadcastMarks(yield func(audioOrMark) bool) (ok bool) {
	b.mu.Lock()
	marksToBroadcast := []string{}
	for i, mark := range b.marks {
		if mark.confirmed || mark.broadcasted {
			continue
		} else if mark.position > b.internalPlayhead {
			break
		}

		b.marks[i].broadcasted = true
		marksToBroadcast = append(marksToBroadcast, mark.ID)
	}
	b.mu.Unlock()

	for _, markID := range marksToBroadcast {
		if !yield(audioOrMark{Type: "mark", Mark: markID}) {
			return false
		}
	}

	return true
}

func (b *audioBuffer) waitForNextAudio(yield func(audioOrMark) bool) (ok bool) {
	for {
		b.mu.Lock()
		noAudioAvailable := len(b.audio) == b.internalPlayhead
		stopped := b.stopped
		audioDone := b.audioDoneLocked()
		b.mu.Unlock()

		if !noAudioAvailable {
			return !(stopped || audioDone)
		}

		if stopped || audioDone {
			return false
		}

		<-b.updateSignal
		// A mark can arrive after its audio fully played; rebroadcast so the
		// consumer is not stuck waiting for confirmation that never comes.
		if ok := b.broadcastMarks(yield); !ok {
			return false
		}
	}
}

func (b *audioBuffer) audioDone() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.audioDoneLocked()
}

// audioDoneLocked is a version of [audioBuffer.audioDone] that is safe to call
// from a locked context.
func (b *audioBuffer) audioDoneLocked() bool {
	return b.allAudioLoaded && b.externalPlayhead == len(b.audio)
}

func (b *audioBuffer) Mark(transcript string) {
	b.mu.Lock()
	b.marks = append(b.marks, audioBufferMark{
		ID:         uuid.NewString(),
		transcript: transcript,
		position:   len(b.audio),
	})
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *audioBuffer) GetMarkText(id string) *string {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.marks {
		if b.marks[i].ID == id {
			transcript := b.marks[i].transcript
			return &transcript
		}
	}
	return nil
}

func (b *audioBuffer) ConfirmMark(id string) {
	b.mu.Lock()
	shouldSignal := false
	for i, mark := range b.marks {
		if mark.confirmed {
			continue
		} else if !mark.broadcasted {
			break
		}
		if mark.ID == id {
			b.marks[i].confirmed = true
			b.externalPlayhead = mark.position
			b.startedPlayingLocked()
			if b.audioDoneLocked() {
				shouldSignal = true
			}
			break
		}
	}
	b.mu.Unlock()

	if shouldSignal {
		b.signalUpdate()
	}
}

func (b *audioBuffer) StartedPlaying() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.startedPlayingLocked()
}

// startedPlayingLocked is a version of [audioBuffer.StartedPlaying] that is
// safe to call from a locked context.
func (b *audioBuffer) startedPlayingLocked() {
	b.lastMarkTimestamp = time.Now()
}

func (b *audioBuffer) AllAudioLoaded() {
	b.mu.Lock()
	b.allAudioLoaded = true
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *audioBuffer) Pause() {
	b.mu.Lock()
	if b.audioDoneLocked() || b.paused {
		b.mu.Unlock()
		return
	}

	b.paused = true
	b.rewindLocked()
	b.mu.Unlock()
	b.signalUpdate()
}

// rewindLocked rolls the playheads back to the estimated live position so
// resuming replays audio that was flushed from the output, not audio the
// listener already heard.
func (b *audioBuffer) rewindLocked() {
	playedDuration := time.Since(b.lastMarkTimestamp)
	samplesPlayed := audioSamples(playedDuration, b.encodingInfo)
	chunksPlayed := 0
	for _, chunk := range b.audio[b.externalPlayhead:] {
		samplesPlayed -= len(chunk)
		if samplesPlayed < 0 {
			break
		}
		chunksPlayed++
	}
	b.externalPlayhead += chunksPlayed
	b.internalPlayhead = b.externalPlayhead
	for i, mark := range b.marks {
		if mark.position > b.internalPlayhead {
			b.marks[i].broadcasted = false
		}
	}
}

func (b *audioBuffer) Resume() {
	b.mu.Lock()
	if b.audioDoneLocked() || !b.paused {
		b.mu.Unlock()
		return
	}

	b.paused = false
	b.startedPlayingLocked()
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *audioBuffer) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *audioBuffer) signalUpdate() {
	select {
	case b.updateSignal <- struct{}{}:
	default:
	}
}

type audioOrMark struct {
	Type  string
	Audio []byte
	Mark  string
}

func audioLen(audio [][]byte) int {
	chunksTotalLength := 0
	for _, audioChunk := range audio {
		chunksTotalLength += len(audioChunk)
	}
	return chunksTotalLength
}

func audioDuration(audio [][]byte, encodingInfo audio.EncodingInfo) time.Duration {
	return time.Duration(float64(audioLen(audio)) / float64(encodingInfo.SampleRate) * float64(time.Second) / float64(encodingInfo.Format.ByteSize()))
}

func audioSamples(duration time.Duration, encodingInfo audio.EncodingInfo) int {
	return int(float64(duration) / float64(time.Second) * float64(encodingInfo.SampleRate) * float64(encodingInfo.Format.ByteSize()))
}
