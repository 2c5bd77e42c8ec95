package orchestration

import (
	"sync"
	"testing"

	"github.com/miralabs/mira-core/core/audio"
)

func TestAudioOutputSnapshotKeepsOriginalClientAfterSet(t *testing.T) {
	original := &snapshotAudioOutputStub{}
	replacement := &snapshotAudioOutputStub{}

	facade := newAudioOutput(original)
	snapshot := facade.Snapshot()

	facade.Set(replacement)

	snapshot.SendAudio([]byte{0x01})
	snapshot.Clear()

	if got := original.sendCalls(); got != 1 {
		t.Fatalf("expected snapshot to send audio through original client once, got %d", got)
	}
	if got := original.clearCalls(); got != 1 {
		t.Fatalf("expected snapshot to clear original client once, got %d", got)
	}
	if got := replacement.sendCalls(); got != 0 {
		t.Fatalf("expected replacement to receive no snapshot audio, got %d", got)
	}
	if got := replacement.clearCalls(); got != 0 {
		t.Fatalf("expected replacement to receive no snapshot clears, got %d", got)
	}

	facade.SendAudio([]byte{0x02})
	facade.Clear()

	if got := replacement.sendCalls(); got != 1 {
		t.Fatalf("expected facade to send audio through replacement client once, got %d", got)
	}
	if got := replacement.clearCalls(); got != 1 {
		t.Fatalf("expected facade to clear replacement client once, got %d", got)
	}
}

func TestAudioOutputFacadeTreatsTypedNilAsUnconfigured(t *testing.T) {
	var outputClient *snapshotAudioOutputStub

	facade := newAudioOutput(outputClient)

	if facade.isConfigured() {
		t.Fatalf("expected typed nil output client to be treated as unconfigured")
	}
	if facade.base != nil {
		t.Fatalf("expected base client to be nil for typed nil output client")
	}

	callbackCalled := false
	facade.Mark("typed-nil-mark", func(string) {
		callbackCalled = true
	})
	if !callbackCalled {
		t.Fatalf("expected unconfigured facade to invoke mark callback")
	}
}

func TestAudioOutputFacadeSetTypedNilClearsConfiguration(t *testing.T) {
	facade := newAudioOutput(&snapshotAudioOutputStub{})
	if !facade.isConfigured() {
		t.Fatalf("expected facade to start configured")
	}

	var outputClient *snapshotAudioOutputStub
	facade.Set(outputClient)

	if facade.isConfigured() {
		t.Fatalf("expected facade to become unconfigured after setting typed nil output client")
	}
	if facade.base != nil {
		t.Fatalf("expected base client to be nil after setting typed nil output client")
	}
}

func TestAudioOutputFacadeDefaultEncodingInfoWhenUnconfigured(t *testing.T) {
	facade := newAudioOutput(nil)

	if got, want := facade.EncodingInfo(), audio.GetDefaultEncodingInfo(); got != want {
		t.Fatalf("expected default encoding info %+v, got %+v", want, got)
	}
}

func TestAudioOutputFacadeForwardsMarksToClient(t *testing.T) {
	client := &snapshotAudioOutputStub{}
	facade := newAudioOutput(client)

	played := ""
	facade.Mark("mark-1", func(mark string) {
		played = mark
	})

	if got := client.markCalls(); got != 1 {
		t.Fatalf("expected one mark call on client, got %d", got)
	}
	if played != "mark-1" {
		t.Fatalf("expected callback mark %q, got %q", "mark-1", played)
	}
}

type snapshotAudioOutputStub struct {
	mu         sync.Mutex
	sendCount  int
	clearCount int
	markCount  int
}

func (output *snapshotAudioOutputStub) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (output *snapshotAudioOutputStub) SendAudio([]byte) error {
	output.mu.Lock()
	output.sendCount++
	output.mu.Unlock()
	return nil
}

func (output *snapshotAudioOutputStub) ClearBuffer() {
	output.mu.Lock()
	output.clearCount++
	output.mu.Unlock()
}

func (output *snapshotAudioOutputStub) Mark(mark string, callback func(string)) error {
	output.mu.Lock()
	output.markCount++
	output.mu.Unlock()
	callback(mark)
	return nil
}

func (output *snapshotAudioOutputStub) sendCalls() int {
	output.mu.Lock()
	defer output.mu.Unlock()
	return output.sendCount
}

func (output *snapshotAudioOutputStub) clearCalls() int {
	output.mu.Lock()
	defer output.mu.Unlock()
	return output.clearCount
}

func (output *snapshotAudioOutputStub) markCalls() int {
	output.mu.Lock()
	defer output.mu.Unlock()
	return output.markCount
}
