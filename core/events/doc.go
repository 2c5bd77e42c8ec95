// Package events defines the typed orchestration event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - user_input.*
//   - link.*
//   - assistant_response.*
//   - assistant_speech.*
//   - assistant_playback.*
//   - turn_state.*
//
// Semantics used across the package:
//
//   - Frame: binary audio frame/chunk payload.
//   - Segment: append-only text piece emitted in stream order.
//   - Updated: mutable point-in-time snapshot that can change over time.
//   - Final: terminal immutable text/state for the current stream/turn phase.
//
// session events
//
//   - SessionReady (session.ready): the pipeline is attached, connected and
//     listening.
//   - SessionError (session.error): a session-level failure the transport
//     boundary should surface (link escalation, device loss).
//   - SessionClosed (session.closed): the session was torn down.
//
// user_input events
//
//   - UserAudioFrame (user_input.audio_frame): raw user input audio frame.
//   - UserSpeechStarted (user_input.speech_started): voice activity began.
//   - UserUtteranceEnded (user_input.utterance_ended): the utterance was
//     closed by silence.
//   - UserTranscriptInterimSegmentUpdated
//     (user_input.transcript_interim_segment_updated): mutable interim tail
//     segment update.
//   - UserTranscriptInterimUpdated (user_input.transcript_interim_updated):
//     mutable interim full transcript snapshot.
//   - UserTranscriptSegment (user_input.transcript_segment): finalized,
//     append-only transcript segment.
//   - UserTranscriptFinal (user_input.transcript_final): terminal full
//     transcript for the utterance.
//   - UserPromptSubmitted (user_input.prompt_submitted): text injected
//     directly by the client, bypassing transcription.
//
// link events
//
//   - LinkError (link.error): a transcription link failure; the session keeps
//     listening.
//   - LinkDegraded (link.degraded): consecutive link errors crossed the
//     degradation threshold; a reconnect is underway.
//   - LinkReconnected (link.reconnected): the transcription link was
//     re-established.
//
// assistant_response events
//
//   - AssistantResponseStarted (assistant_response.started): response
//     generation started.
//   - AssistantResponseSegment (assistant_response.segment): streamed
//     response text segment.
//   - AssistantResponseFinal (assistant_response.final): the complete
//     response text.
//
// assistant_speech events
//
//   - AssistantSpeechFrame (assistant_speech.frame): synthesized speech audio
//     frame.
//
// assistant_playback events
//
//   - AssistantPlaybackStarted (assistant_playback.started): playback started
//     for the current response.
//   - AssistantPlaybackMarkPlayed (assistant_playback.mark_played): an output
//     mark was confirmed as played; includes mark id and transcript chunk.
//   - AssistantPlaybackTranscriptUpdated
//     (assistant_playback.transcript_updated): mutable spoken-so-far
//     transcript snapshot.
//   - AssistantPlaybackEnded (assistant_playback.ended): playback ended;
//     includes the transcript confirmed as spoken.
//
// turn_state events
//
//   - TurnStarted (turn_state.started): processing of a user turn began.
//   - TurnCompleted (turn_state.completed): the turn completed and was
//     committed to history.
//   - TurnFailed (turn_state.failed): generation or synthesis failed; nothing
//     was committed.
//   - TurnCancelled (turn_state.cancelled): the turn was interrupted by the
//     user; includes the transcript spoken before the cut.
package events
