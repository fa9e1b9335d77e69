package main

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	orchestration "github.com/oralprep/interview-core/core"
	"github.com/oralprep/interview-core/core/credentials"
	"github.com/oralprep/interview-core/core/interviews/anthropic"
	"github.com/oralprep/interview-core/core/modes"
)

const requestTimeout = 30 * time.Second

type screen int

const (
	screenKeyEntry screen = iota
	screenModePicker
	screenInterview
	screenReport
)

// Messages pushed from the orchestrator callbacks.
type (
	phaseChangedMsg      string
	stateChangedMsg      string
	micStateChangedMsg   string
	transcriptChangedMsg struct{}
	remainingTurnsMsg    int
	reportReadyMsg       struct{}

	statusMsg struct {
		text    string
		isError bool
	}
)

// Messages produced by command completions.
type (
	keyValidatedMsg struct{ err error }

	interviewStartedMsg struct{ err error }
	answerSubmittedMsg  struct{ err error }
	reevaluatedMsg      struct{ err error }
	listeningStartedMsg struct{ err error }
)

type model struct {
	orchestrator *orchestration.Orchestrator
	client       *anthropic.Client
	store        *credentials.Store
	catalog      *modes.Catalog

	screen        screen
	width, height int

	keyInput    textinput.Model
	answerInput textinput.Model
	spinner     spinner.Model

	modeNames []string
	modeIndex int

	voiceEnabled bool
	phase        string
	state        string
	micState     string

	remaining      int
	remainingKnown bool

	status      string
	statusIsErr bool
	validating  bool
	submitting  bool
}

func newModel(
	orchestrator *orchestration.Orchestrator,
	client *anthropic.Client,
	store *credentials.Store,
	catalog *modes.Catalog,
	voiceEnabled bool,
) model {
	keyInput := textinput.New()
	keyInput.Placeholder = "sk-ant-..."
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.CharLimit = 200
	keyInput.Focus()

	answerInput := textinput.New()
	answerInput.Placeholder = "type your answer, or press ctrl+r to speak"
	answerInput.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := model{
		orchestrator: orchestrator,
		client:       client,
		store:        store,
		catalog:      catalog,
		keyInput:     keyInput,
		answerInput:  answerInput,
		spinner:      sp,
		voiceEnabled: voiceEnabled,
		phase:        string(orchestrator.Phase()),
		state:        string(orchestrator.State()),
		micState:     string(orchestrator.MicState()),
	}

	m.modeNames = catalog.Modes()
	lastMode := store.LastMode(catalog.DefaultMode())
	for i, name := range m.modeNames {
		if name == lastMode {
			m.modeIndex = i
			break
		}
	}

	if store.HasKey() {
		m.screen = screenModePicker
	}

	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.updateKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case phaseChangedMsg:
		m.phase = string(msg)
		return m, nil
	case stateChangedMsg:
		m.state = string(msg)
		return m, nil
	case micStateChangedMsg:
		m.micState = string(msg)
		return m, nil
	case transcriptChangedMsg:
		return m, nil
	case remainingTurnsMsg:
		m.remaining = int(msg)
		m.remainingKnown = true
		return m, nil
	case statusMsg:
		m.status = msg.text
		m.statusIsErr = msg.isError
		return m, nil
	case reportReadyMsg:
		m.screen = screenReport
		return m, nil

	case keyValidatedMsg:
		m.validating = false
		if msg.err != nil {
			m.status = "key check failed: " + msg.err.Error()
			m.statusIsErr = true
			return m, nil
		}
		m.status = "API key saved"
		m.statusIsErr = false
		m.screen = screenModePicker
		return m, nil

	case interviewStartedMsg:
		m.submitting = false
		if msg.err != nil {
			m.status = msg.err.Error()
			m.statusIsErr = true
			m.screen = screenModePicker
		}
		return m, nil

	case answerSubmittedMsg:
		m.submitting = false
		if msg.err != nil {
			m.status = msg.err.Error()
			m.statusIsErr = true
		}
		return m, nil

	case reevaluatedMsg:
		m.submitting = false
		if msg.err != nil {
			m.status = msg.err.Error()
			m.statusIsErr = true
		}
		return m, nil

	case listeningStartedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.statusIsErr = true
		}
		return m, nil
	}

	return m, nil
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenKeyEntry:
		return m.updateKeyEntry(msg)
	case screenModePicker:
		return m.updateModePicker(msg)
	case screenInterview:
		return m.updateInterview(msg)
	case screenReport:
		return m.updateReport(msg)
	}
	return m, nil
}

func (m model) updateKeyEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" && !m.validating {
		key := strings.TrimSpace(m.keyInput.Value())
		if key == "" {
			m.status = "enter an API key first"
			m.statusIsErr = true
			return m, nil
		}
		m.validating = true
		m.status = "checking key..."
		m.statusIsErr = false
		return m, m.validateKey(key)
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m model) updateModePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.modeIndex > 0 {
			m.modeIndex--
		}
		return m, nil
	case "down", "j":
		if m.modeIndex < len(m.modeNames)-1 {
			m.modeIndex++
		}
		return m, nil
	case "a":
		// Change the stored API key.
		m.keyInput.SetValue("")
		m.keyInput.Focus()
		m.screen = screenKeyEntry
		return m, textinput.Blink
	case "enter":
		if m.submitting || len(m.modeNames) == 0 {
			return m, nil
		}
		mode := m.modeNames[m.modeIndex]
		m.submitting = true
		m.status = ""
		m.screen = screenInterview
		m.remainingKnown = false
		m.answerInput.SetValue("")
		m.answerInput.Focus()
		return m, tea.Batch(m.startInterview(mode), textinput.Blink)
	}
	return m, nil
}

func (m model) updateInterview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.orchestrator.ChangeMode("")
		m.screen = screenModePicker
		m.status = ""
		m.remainingKnown = false
		return m, nil
	case "ctrl+r":
		return m.toggleMic()
	case "enter":
		if m.submitting {
			return m, nil
		}
		answer := strings.TrimSpace(m.answerInput.Value())
		if answer == "" {
			return m, nil
		}
		m.submitting = true
		m.answerInput.SetValue("")
		return m, m.submitAnswer(answer)
	}

	var cmd tea.Cmd
	m.answerInput, cmd = m.answerInput.Update(msg)
	return m, cmd
}

func (m model) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "r":
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		m.status = "re-running evaluation..."
		m.statusIsErr = false
		return m, m.reevaluate()
	case "n":
		m.orchestrator.ChangeMode("")
		m.screen = screenModePicker
		m.status = ""
		m.remainingKnown = false
		return m, nil
	}
	return m, nil
}

func (m model) toggleMic() (tea.Model, tea.Cmd) {
	if !m.voiceEnabled {
		m.status = "voice capture is not available"
		m.statusIsErr = true
		return m, nil
	}
	switch orchestration.MicState(m.micState) {
	case orchestration.MicListening:
		m.orchestrator.StopListening()
		return m, nil
	case orchestration.MicReady:
		return m, m.startListening()
	}
	m.status = "microphone is not ready"
	m.statusIsErr = true
	return m, nil
}

func (m model) validateKey(key string) tea.Cmd {
	client, store := m.client, m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := client.ValidateKey(ctx, key); err != nil {
			return keyValidatedMsg{err: err}
		}
		if err := store.SaveAPIKey(key); err != nil {
			return keyValidatedMsg{err: err}
		}
		return keyValidatedMsg{}
	}
}

func (m model) startInterview(mode string) tea.Cmd {
	orchestrator := m.orchestrator
	return func() tea.Msg {
		return interviewStartedMsg{err: orchestrator.StartInterview(context.Background(), mode)}
	}
}

func (m model) submitAnswer(answer string) tea.Cmd {
	orchestrator := m.orchestrator
	return func() tea.Msg {
		err := orchestrator.SubmitUtterance(context.Background(), answer, orchestration.SourceTyped)
		return answerSubmittedMsg{err: err}
	}
}

func (m model) reevaluate() tea.Cmd {
	orchestrator := m.orchestrator
	return func() tea.Msg {
		return reevaluatedMsg{err: orchestrator.Evaluate(context.Background(), "")}
	}
}

func (m model) startListening() tea.Cmd {
	orchestrator := m.orchestrator
	return func() tea.Msg {
		return listeningStartedMsg{err: orchestrator.StartListening()}
	}
}
