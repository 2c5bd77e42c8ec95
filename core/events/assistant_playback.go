package events

const (
	// KindAssistantPlaybackStarted identifies playback start for the current response.
	KindAssistantPlaybackStarted Kind = "assistant_playback.started"
	// KindAssistantPlaybackMarkPlayed identifies confirmation that an output mark was played.
	KindAssistantPlaybackMarkPlayed Kind = "assistant_playback.mark_played"
	// KindAssistantPlaybackTranscriptUpdated identifies mutable spoken transcript snapshots.
	KindAssistantPlaybackTranscriptUpdated Kind = "assistant_playback.transcript_updated"
	// KindAssistantPlaybackEnded identifies the playback completion milestone.
	KindAssistantPlaybackEnded Kind = "assistant_playback.ended"
)

// AssistantPlaybackStarted marks the start of assistant playback.
type AssistantPlaybackStarted struct{ Base }

// NewAssistantPlaybackStarted creates an assistant playback started event.
func NewAssistantPlaybackStarted() AssistantPlaybackStarted {
	return AssistantPlaybackStarted{Base: NewBase(KindAssistantPlaybackStarted)}
}

// AssistantPlaybackMarkPlayed marks confirmation that a playback mark was played.
type AssistantPlaybackMarkPlayed struct {
	Base
	Mark       string
	Transcript string
}

// NewAssistantPlaybackMarkPlayed creates an assistant playback mark played event.
func NewAssistantPlaybackMarkPlayed(mark, transcript string) AssistantPlaybackMarkPlayed {
	return AssistantPlaybackMarkPlayed{Base: NewBase(KindAssistantPlaybackMarkPlayed), Mark: mark, Transcript: transcript}
}

// AssistantPlaybackTranscriptUpdated carries the transcript confirmed as spoken so far.
type AssistantPlaybackTranscriptUpdated struct {
	Base
	Transcript string
}

// NewAssistantPlaybackTranscriptUpdated creates a playback transcript updated event.
func NewAssistantPlaybackTranscriptUpdated(transcript string) AssistantPlaybackTranscriptUpdated {
	return AssistantPlaybackTranscriptUpdated{Base: NewBase(KindAssistantPlaybackTranscriptUpdated), Transcript: transcript}
}

// AssistantPlaybackEnded marks the end of assistant playback.
type AssistantPlaybackEnded struct {
	Base
	Transcript string
}

// NewAssistantPlaybackEnded creates an assistant playback ended event.
func NewAssistantPlaybackEnded(transcript string) AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded), Transcript: transcript}
}
