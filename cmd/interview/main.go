// Command interview is the terminal client for spoken interview rehearsal:
// pick a mode, answer the interviewer by voice or keyboard, and read the
// evaluation report when the turns run out.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	orchestration "github.com/oralprep/interview-core/core"
	"github.com/oralprep/interview-core/core/audio/miniaudio"
	"github.com/oralprep/interview-core/core/audio/portaudio"
	"github.com/oralprep/interview-core/core/credentials"
	"github.com/oralprep/interview-core/core/interviews/anthropic"
	"github.com/oralprep/interview-core/core/modes"
	capturedeepgram "github.com/oralprep/interview-core/core/speechcapture/deepgram"
	speechdeepgram "github.com/oralprep/interview-core/core/speechoutput/deepgram"
)

func main() {
	configDir := flag.String("config-dir", "", "directory with additional interview mode documents")
	envPath := flag.String("env", defaultEnvPath(), "credentials file path")
	voice := flag.Bool("voice", true, "speak interviewer prompts and capture spoken answers")
	audioBackend := flag.String("audio-backend", "miniaudio", "audio backend: miniaudio or portaudio")
	voiceModel := flag.String("voice-model", string(speechdeepgram.VoiceAsteria), "synthesis voice model")
	flag.Parse()

	if err := run(*configDir, *envPath, *voice, *audioBackend, *voiceModel); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultEnvPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".env"
	}
	return filepath.Join(home, ".oralprep", ".env")
}

func run(configDir, envPath string, voice bool, audioBackend, voiceModel string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalogOpts := []modes.CatalogOption{}
	if configDir != "" {
		catalogOpts = append(catalogOpts, modes.WithConfigDir(configDir))
	}
	catalog, err := modes.NewCatalog(catalogOpts...)
	if err != nil {
		return fmt.Errorf("failed to load interview modes: %w", err)
	}
	if configDir != "" {
		if err := catalog.Watch(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "notice: mode directory watching disabled: %v\n", err)
		}
	}

	store := credentials.NewStore(envPath)

	client, err := anthropic.NewClient(catalog,
		anthropic.WithCredentialSource(store),
		anthropic.WithModePersister(store),
	)
	if err != nil {
		return fmt.Errorf("failed to build interview client: %w", err)
	}

	orchestratorOpts := []orchestration.OrchestratorOption{
		orchestration.WithInterviewClient(client),
		orchestration.WithCredentialSource(store),
	}

	voiceEnabled := false
	if voice {
		captureClient, speechClient, cleanup, err := buildVoiceStack(audioBackend, voiceModel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "notice: voice disabled: %v\n", err)
		} else {
			defer cleanup()
			orchestratorOpts = append(orchestratorOpts,
				orchestration.WithSpeechCapture(captureClient),
				orchestration.WithSpeechOutput(speechClient),
			)
			voiceEnabled = true
		}
	}

	orchestrator := orchestration.NewOrchestrator(orchestratorOpts...)
	defer orchestrator.Close()

	program := tea.NewProgram(
		newModel(orchestrator, client, store, catalog, voiceEnabled),
		tea.WithAltScreen(),
	)

	orchestrator.Orchestrate(ctx,
		orchestration.WithPhaseChangedCallback(func(phase string) {
			program.Send(phaseChangedMsg(phase))
		}),
		orchestration.WithStateChangedCallback(func(state string) {
			program.Send(stateChangedMsg(state))
		}),
		orchestration.WithMicStateChangedCallback(func(state string) {
			program.Send(micStateChangedMsg(state))
		}),
		orchestration.WithTranscriptCallback(func() {
			program.Send(transcriptChangedMsg{})
		}),
		orchestration.WithRemainingTurnsCallback(func(remaining int) {
			program.Send(remainingTurnsMsg(remaining))
		}),
		orchestration.WithStatusCallback(func(message string, isError bool) {
			program.Send(statusMsg{text: message, isError: isError})
		}),
		orchestration.WithReportReadyCallback(func() {
			program.Send(reportReadyMsg{})
		}),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal interface failed: %w", err)
	}
	return nil
}

// buildVoiceStack wires one audio device client into both Deepgram
// adapters. Requires DEEPGRAM_API_KEY.
func buildVoiceStack(backend, voiceModel string) (orchestration.SpeechCapture, orchestration.SpeechOutput, func(), error) {
	var (
		source  capturedeepgram.AudioSource
		sink    speechdeepgram.AudioSink
		cleanup func()
	)

	switch backend {
	case "miniaudio":
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open audio device: %w", err)
		}
		source, sink, cleanup = client, client, client.Close
	case "portaudio":
		client, err := portaudio.NewClient(512)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open audio device: %w", err)
		}
		source, sink, cleanup = client, client, client.Close
	default:
		return nil, nil, nil, fmt.Errorf("unknown audio backend %q", backend)
	}

	captureClient, err := capturedeepgram.NewCaptureClient(source)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	speechClient, err := speechdeepgram.NewSpeechClient(sink,
		speechdeepgram.WithVoice(speechdeepgram.Voice(voiceModel)))
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	return captureClient, speechClient, cleanup, nil
}
