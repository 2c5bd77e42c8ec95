package orchestration

import (
	"strings"
	"sync"

	"github.com/miralabs/mira-core/core/audio"
)

// speechPlayer tracks how much of the assistant response has actually been
// spoken. It owns the per-turn text and audio buffers, segments response text
// at mark boundaries, and advances spoken-text state as the audio output
// confirms marks.
//
// Text segments align one-to-one with marks: confirming a mark means the
// segment before it finished playing.
type speechPlayer struct {
	mu sync.Mutex

	text              []string
	confirmedSegments int
	lastEmitted       string

	boundaryChars string
	textBuffer    *textBuffer
	audioBuffer   *audioBuffer

	onAudioEnded      func(string)
	onSpokenText      func(string)
	onSpokenTextDelta func(string)
}

func newSpeechPlayer() *speechPlayer {
	return &speechPlayer{
		onAudioEnded:      func(string) {},
		onSpokenText:      func(string) {},
		onSpokenTextDelta: func(string) {},
	}
}

// Snapshot returns a fresh player for a new turn keeping only the callbacks.
// Buffers are not carried over; call InitBuffers before use.
func (p *speechPlayer) Snapshot() *speechPlayer {
	if p == nil {
		return p
	}

	snapshot := newSpeechPlayer()
	snapshot.SetCallbacks(p.onAudioEnded)
	snapshot.SetSpokenTextCallback(p.onSpokenText)
	snapshot.SetSpokenTextDeltaCallback(p.onSpokenTextDelta)
	return snapshot
}

func (p *speechPlayer) SetCallbacks(onAudioEnded func(string)) {
	if p == nil {
		return
	}

	if onAudioEnded != nil {
		p.onAudioEnded = onAudioEnded
	}
}

func (p *speechPlayer) SetSpokenTextCallback(onSpokenText func(string)) {
	if p == nil {
		return
	}

	if onSpokenText != nil {
		p.onSpokenText = onSpokenText
	}
}

func (p *speechPlayer) SetSpokenTextDeltaCallback(onSpokenTextDelta func(string)) {
	if p == nil {
		return
	}

	if onSpokenTextDelta != nil {
		p.onSpokenTextDelta = onSpokenTextDelta
	}
}

// InitBuffers attaches per-turn text and audio buffers. boundaryChars selects
// which characters trigger a mark after a text chunk; empty disables marks.
func (p *speechPlayer) InitBuffers(encodingInfo audio.EncodingInfo, boundaryChars string) {
	if p == nil {
		return
	}

	p.mu.Lock()
	p.boundaryChars = boundaryChars
	p.textBuffer = newTextBuffer()
	p.audioBuffer = newAudioBuffer(encodingInfo)
	p.mu.Unlock()
}

func (p *speechPlayer) AddTextChunk(chunk string) {
	if p == nil || p.textBuffer == nil {
		return
	}

	p.textBuffer.AddChunk(chunk)
}

func (p *speechPlayer) TextComplete() {
	if p == nil || p.textBuffer == nil {
		return
	}

	p.textBuffer.TextComplete()
}

func (p *speechPlayer) ClearText() {
	if p == nil || p.textBuffer == nil {
		return
	}

	p.textBuffer.Clear()
}

// FullText returns the complete generated response text so far, confirmed or
// not.
func (p *speechPlayer) FullText() string {
	if p == nil || p.textBuffer == nil {
		return ""
	}

	return p.textBuffer.String()
}

const (
	textOrMarkTypeText = "text"
	textOrMarkTypeMark = "mark"
)

type textOrMark struct {
	Type string
	Text string
}

// TextOrMarks drains the owned text buffer, tracking segments as it goes and
// interleaving mark events whenever a chunk contains a boundary character.
func (p *speechPlayer) TextOrMarks(yield func(textOrMark) bool) {
	if p == nil || p.textBuffer == nil {
		return
	}

	for chunk := range p.textBuffer.Chunks {
		p.appendToCurrentSegment(chunk)
		if !yield(textOrMark{Type: textOrMarkTypeText, Text: chunk}) {
			return
		}

		p.mu.Lock()
		boundary := p.boundaryChars != "" && strings.ContainsAny(chunk, p.boundaryChars)
		if boundary {
			p.text = append(p.text, "")
		}
		p.mu.Unlock()

		if boundary {
			if !yield(textOrMark{Type: textOrMarkTypeMark}) {
				return
			}
		}
	}
}

func (p *speechPlayer) appendToCurrentSegment(chunk string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.text) == 0 {
		p.text = append(p.text, chunk)
		return
	}
	p.text[len(p.text)-1] += chunk
}

func (p *speechPlayer) AddAudioChunk(audio []byte) {
	if p == nil || p.audioBuffer == nil {
		return
	}

	p.audioBuffer.AddAudio(audio)
}

func (p *speechPlayer) AddAudioMark(transcript string) {
	if p == nil || p.audioBuffer == nil {
		return
	}

	p.audioBuffer.Mark(transcript)
}

func (p *speechPlayer) AllAudioLoaded() {
	if p == nil || p.audioBuffer == nil {
		return
	}

	p.audioBuffer.AllAudioLoaded()
}

// Audio drains the owned audio buffer, yielding audio chunks interleaved with
// mark events at their recorded positions.
func (p *speechPlayer) Audio(yield func(audioOrMark) bool) {
	if p == nil || p.audioBuffer == nil {
		return
	}

	p.audioBuffer.Audio(yield)
}

func (p *speechPlayer) PauseAudio() {
	if p == nil || p.audioBuffer == nil {
		return
	}

	p.audioBuffer.Pause()
}

func (p *speechPlayer) ResumeAudio() {
	if p == nil || p.audioBuffer == nil {
		return
	}

	p.audioBuffer.Resume()
}

func (p *speechPlayer) StopAudio() {
	if p == nil || p.audioBuffer == nil {
		return
	}

	p.audioBuffer.Stop()
}

// OnAudioOutputMarkPlayed handles a mark confirmation coming back from the
// audio output: it confirms the mark in the audio buffer, advances spoken
// text by one segment, emits the update, and returns the mark's transcript.
func (p *speechPlayer) OnAudioOutputMarkPlayed(markID string) *string {
	if p == nil || p.audioBuffer == nil {
		return nil
	}

	transcript := p.audioBuffer.GetMarkText(markID)
	p.audioBuffer.ConfirmMark(markID)
	p.ConfirmMark()
	p.emit(p.SpokenTextSoFar())
	return transcript
}

// ConfirmMark advances confirmed spoken text by one segment. Confirmations
// past the last segment are ignored.
func (p *speechPlayer) ConfirmMark() {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.confirmedSegments < len(p.text) {
		p.confirmedSegments++
	}
}

// SpokenTextSoFar returns the text confirmed as spoken by played marks.
func (p *speechPlayer) SpokenTextSoFar() string {
	if p == nil {
		return ""
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return strings.Join(p.text[:p.confirmedSegments], "")
}

// ApproximateSpokenTextSoFar extends confirmed text with a progress-scaled
// prefix of the in-flight segment. progress is clamped to [0, 1].
func (p *speechPlayer) ApproximateSpokenTextSoFar(progress float64) string {
	if p == nil {
		return ""
	}

	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	spoken := strings.Join(p.text[:p.confirmedSegments], "")
	if p.confirmedSegments < len(p.text) {
		segment := p.text[p.confirmedSegments]
		spoken += segment[:int(progress*float64(len(segment)))]
	}
	return spoken
}

// EmitApproximateSpokenText emits the approximate spoken text through the
// configured callbacks, skipping values that have not changed since the last
// emission.
func (p *speechPlayer) EmitApproximateSpokenText(progress float64) {
	if p == nil {
		return
	}

	p.emit(p.ApproximateSpokenTextSoFar(progress))
}

func (p *speechPlayer) emit(spokenText string) {
	p.mu.Lock()
	if spokenText == p.lastEmitted {
		p.mu.Unlock()
		return
	}

	delta := spokenText
	if strings.HasPrefix(spokenText, p.lastEmitted) {
		delta = strings.TrimPrefix(spokenText, p.lastEmitted)
	}
	p.lastEmitted = spokenText
	onSpokenText := p.onSpokenText
	onSpokenTextDelta := p.onSpokenTextDelta
	p.mu.Unlock()

	onSpokenText(spokenText)
	onSpokenTextDelta(delta)
}

// OnAudioEnded reports playback completion. The spoken transcript is used when
// marks confirmed any text; otherwise the provided transcript is the best
// available record of what played.
func (p *speechPlayer) OnAudioEnded(transcript string) {
	if p == nil {
		return
	}

	if spoken := p.SpokenTextSoFar(); spoken != "" {
		transcript = spoken
	}

	if p.onAudioEnded != nil {
		p.onAudioEnded(transcript)
	}
}
