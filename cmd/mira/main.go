// Command mira is a developer console for driving a spoken conversation
// against the local microphone and speakers. It needs DEEPGRAM_API_KEY and
// GROQ_API_KEY, read from the environment or a local .env file.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	orchestration "github.com/miralabs/mira-core/core"
	"github.com/miralabs/mira-core/core/audio/miniaudio"
	"github.com/miralabs/mira-core/core/events"
	"github.com/miralabs/mira-core/core/llms/groq"
	sttdeepgram "github.com/miralabs/mira-core/core/speechtotext/deepgram"
	ttsdeepgram "github.com/miralabs/mira-core/core/texttospeech/deepgram"
)

const instructions = "You are a helpful voice assistant. Keep answers short " +
	"and conversational; they will be spoken aloud."

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mira:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	if _, ok := os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
		return fmt.Errorf("DEEPGRAM_API_KEY is not set")
	}

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		return fmt.Errorf("failed to open audio devices: %w", err)
	}
	defer audioClient.Close()

	llmClient, err := groq.NewClient()
	if err != nil {
		return fmt.Errorf("failed to configure llm: %w", err)
	}

	ttsClient, err := ttsdeepgram.NewTextToSpeechClient()
	if err != nil {
		return fmt.Errorf("failed to configure text-to-speech: %w", err)
	}

	orchestrator := orchestration.NewOrchestrator(
		orchestration.WithAudioInput(audioClient),
		orchestration.WithAudioOutput(audioClient),
		orchestration.WithSpeechToTextClient(sttdeepgram.NewTranscriptionClient()),
		orchestration.WithTextToSpeechClient(ttsClient),
		orchestration.WithStreamingLLM(llmClient),
		orchestration.WithInstructions(instructions),
	)
	defer orchestrator.Close(context.Background())

	program := tea.NewProgram(newModel(orchestrator), tea.WithAltScreen())

	err = orchestrator.Orchestrate(context.Background(),
		orchestration.WithEventCallback(func(event events.Event) {
			program.Send(sessionEventMsg{event: event})
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to start conversation: %w", err)
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("console exited: %w", err)
	}

	return nil
}
