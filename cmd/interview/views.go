package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/oralprep/interview-core/core"
	"github.com/oralprep/interview-core/core/interviews"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subtleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	interviewerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	candidateStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	scoreStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	micStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	spinnerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

func (m model) View() string {
	switch m.screen {
	case screenKeyEntry:
		return m.viewKeyEntry()
	case screenModePicker:
		return m.viewModePicker()
	case screenInterview:
		return m.viewInterview()
	case screenReport:
		return m.viewReport()
	}
	return ""
}

func (m model) wrapWidth() int {
	if m.width <= 0 {
		return 76
	}
	if m.width > 100 {
		return 96
	}
	return m.width - 4
}

func (m model) viewKeyEntry() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Interview Rehearsal"))
	b.WriteString("\n\n")
	b.WriteString("Enter your Anthropic API key. It is stored locally and never\n")
	b.WriteString("leaves this machine except to authenticate requests.\n\n")
	b.WriteString(m.keyInput.View())
	b.WriteString("\n\n")
	if m.validating {
		b.WriteString(m.spinner.View() + " checking key...")
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine())
	b.WriteString(subtleStyle.Render("\nenter: save  ctrl+c: quit"))
	return b.String()
}

func (m model) viewModePicker() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Choose an interview mode"))
	b.WriteString("\n\n")

	for i, name := range m.modeNames {
		cursor := "  "
		line := name
		if config, err := m.catalog.Get(name); err == nil {
			line = fmt.Sprintf("%-10s %s", config.Title, subtleStyle.Render(config.Description))
		}
		if i == m.modeIndex {
			cursor = "> "
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString(subtleStyle.Render("\nenter: start  a: change API key  q: quit"))
	return b.String()
}

func (m model) viewInterview() string {
	var b strings.Builder

	header := titleStyle.Render("Interview: " + m.orchestrator.Mode())
	if m.remainingKnown {
		header += subtleStyle.Render(fmt.Sprintf("   %d answers remaining", m.remaining))
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString(m.renderTranscript())
	b.WriteString("\n")

	switch orchestration.TurnState(m.state) {
	case orchestration.StateAwaitingAssistant, orchestration.StateSubmitting:
		b.WriteString(m.spinner.View() + " waiting for the interviewer...\n")
	case orchestration.StateSpeaking:
		b.WriteString(m.spinner.View() + " interviewer is speaking...\n")
	case orchestration.StateFinalizing:
		b.WriteString(m.spinner.View() + " evaluating your interview...\n")
	case orchestration.StateAwaitingCandidate:
		b.WriteString(m.renderMicIndicator())
		b.WriteString(m.answerInput.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString(subtleStyle.Render("\nenter: send  ctrl+r: mic  esc: abandon  ctrl+c: quit"))
	return b.String()
}

func (m model) renderTranscript() string {
	entries := m.orchestrator.TranscriptSnapshot()
	if len(entries) == 0 {
		return subtleStyle.Render("(waiting for the opening question)") + "\n"
	}

	width := m.wrapWidth()
	var b strings.Builder
	for _, entry := range entries {
		label := interviewerStyle.Render(entry.Role.Label() + ":")
		if entry.Role == orchestration.RoleCandidate {
			label = candidateStyle.Render(entry.Role.Label() + ":")
		}
		b.WriteString(label + "\n")
		b.WriteString(wordwrap.String(entry.Text, width))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m model) renderMicIndicator() string {
	if !m.voiceEnabled {
		return ""
	}
	switch orchestration.MicState(m.micState) {
	case orchestration.MicReady:
		return subtleStyle.Render("mic ready (ctrl+r to speak)") + "\n"
	case orchestration.MicListening:
		return micStyle.Render("● listening... (ctrl+r to stop)") + "\n"
	case orchestration.MicReceived:
		return subtleStyle.Render("heard you, sending...") + "\n"
	}
	return ""
}

func (m model) viewReport() string {
	report := m.orchestrator.Report()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Evaluation Report"))
	b.WriteString("\n\n")

	if report == nil {
		b.WriteString(errorStyle.Render("The evaluation did not complete."))
		b.WriteString("\n\n")
		b.WriteString(m.statusLine())
		b.WriteString(subtleStyle.Render("\nr: retry evaluation  n: new interview  q: quit"))
		return b.String()
	}

	b.WriteString(m.renderReport(report))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString(subtleStyle.Render("\nr: re-evaluate  n: new interview  q: quit"))
	return b.String()
}

func (m model) renderReport(report *interviews.Report) string {
	width := m.wrapWidth()
	var b strings.Builder

	score := fmt.Sprintf("%.1f", report.OverallScore)
	if report.OverallScale != "" {
		score += " (" + report.OverallScale + ")"
	}
	b.WriteString("Overall: " + scoreStyle.Render(score))
	if report.CEFRLevel != "" {
		b.WriteString("   CEFR: " + scoreStyle.Render(report.CEFRLevel))
	}
	b.WriteString("\n\n")

	if len(report.CriterionScores) > 0 {
		b.WriteString(interviewerStyle.Render("Criteria") + "\n")
		names := make([]string, 0, len(report.CriterionScores))
		for name := range report.CriterionScores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			criterion := report.CriterionScores[name]
			line := fmt.Sprintf("  %-28s %.1f", name, criterion.Score)
			if criterion.MaxScore > 0 {
				line += fmt.Sprintf(" / %.0f", criterion.MaxScore)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if len(report.QuestionBreakdown) > 0 {
		b.WriteString(interviewerStyle.Render("Per question") + "\n")
		for _, question := range report.QuestionBreakdown {
			b.WriteString(fmt.Sprintf("  Q%d: %.1f/%.0f  %s\n",
				question.QuestionNumber, question.Score, question.MaxScore,
				question.Feedback))
		}
		b.WriteString("\n")
	}

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString(interviewerStyle.Render(title) + "\n")
		for _, item := range items {
			b.WriteString(wordwrap.String("  - "+item, width) + "\n")
		}
		b.WriteString("\n")
	}
	writeList("Strengths", report.Strengths)
	writeList("Improvements", report.Improvements)
	writeList("What worked", report.SpecificExamples.Good)
	writeList("Needs work", report.SpecificExamples.NeedsWork)

	if report.ProfessionalLevel != "" {
		b.WriteString("Professional level: " + scoreStyle.Render(report.ProfessionalLevel) + "\n")
		writeList("Recommended roles", report.RecommendedRoles)
	}
	if report.NativeLikeness > 0 {
		b.WriteString(fmt.Sprintf("Native-likeness: %s\n", scoreStyle.Render(fmt.Sprintf("%.0f%%", report.NativeLikeness))))
		writeList("Idioms to try", report.IdiomExamples)
	}

	if len(report.EquivalentScores) > 0 {
		b.WriteString(interviewerStyle.Render("Equivalent scores") + "\n")
		names := make([]string, 0, len(report.EquivalentScores))
		for name := range report.EquivalentScores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(fmt.Sprintf("  %-10s %.1f\n", name, report.EquivalentScores[name]))
		}
		b.WriteString("\n")
	}

	if report.DetailedFeedback != "" {
		b.WriteString(interviewerStyle.Render("Feedback") + "\n")
		b.WriteString(wordwrap.String(report.DetailedFeedback, width))
		b.WriteString("\n")
	}

	return b.String()
}

func (m model) statusLine() string {
	if m.status == "" {
		return ""
	}
	if m.statusIsErr {
		return errorStyle.Render(m.status) + "\n"
	}
	return statusStyle.Render(m.status) + "\n"
}
