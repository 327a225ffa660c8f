package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/cutscene-engine/pkg/playback"
)

// PlayerUI is the BubbleTea model that plays one cutscene.
// https://github.com/charmbracelet/bubbletea
type PlayerUI struct {
	title       string
	interpreter *playback.Interpreter
	stage       *stage

	dialogViewport viewport.Model
	metaViewport   viewport.Model
	selected       int
	ready          bool
	width          int
	height         int
	status         string

	showQuitModal bool
}

var (
	dialogPanelStyle = lipgloss.NewStyle().
				PaddingTop(2).
				PaddingBottom(1).
				PaddingLeft(3).
				PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	dialogueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewPlayerUI(name string, interpreter *playback.Interpreter, st *stage) PlayerUI {
	dialogVp := viewport.New(50, 20)
	dialogVp.MouseWheelEnabled = true

	return PlayerUI{
		title:          cases.Title(language.English).String(strings.ReplaceAll(name, "_", " ")),
		interpreter:    interpreter,
		stage:          st,
		dialogViewport: dialogVp,
		metaViewport:   viewport.New(20, 20),
	}
}

func (m PlayerUI) Init() tea.Cmd {
	return func() tea.Msg { return startMsg{} }
}

type startMsg struct{}

func (m PlayerUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case startMsg:
		return m.start()

	case delayDoneMsg:
		msg.fn()
		m.selected = 0
		m.refresh()
		return m, m.stage.drain()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		dialogWidth := int(float64(m.width)*0.65) - 4
		metaWidth := m.width - dialogWidth - 6
		m.dialogViewport.Width = dialogWidth - 2
		m.dialogViewport.Height = m.height - 6
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
				m.refresh()
			}
			return m, nil
		case tea.KeyDown:
			if m.selected < len(m.stage.choices)-1 {
				m.selected++
				m.refresh()
			}
			return m, nil
		case tea.KeyEnter:
			return m.choose(m.selected)
		}

		switch key := msg.String(); key {
		case "q":
			m.showQuitModal = true
			return m, nil
		case "r":
			return m.start()
		case "c":
			if err := clipboard.WriteAll(m.stage.text); err != nil {
				m.status = "Copy failed: " + err.Error()
			} else {
				m.status = "Copied current line"
			}
			m.refresh()
			return m, nil
		default:
			if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
				return m.choose(int(key[0] - '1'))
			}
		}
	}

	m.dialogViewport, vpCmd = m.dialogViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m PlayerUI) start() (tea.Model, tea.Cmd) {
	m.stage.reset()
	m.selected = 0
	m.status = ""
	_ = m.interpreter.Start() // failures land on the stage through PlaybackFailed
	m.refresh()
	return m, m.stage.drain()
}

func (m PlayerUI) choose(i int) (tea.Model, tea.Cmd) {
	if m.interpreter.State() != playback.StateWaitingChoice || i < 0 || i >= len(m.stage.choices) {
		return m, nil
	}
	m.status = ""
	m.stage.choices[i].Select()
	m.selected = 0
	m.refresh()
	return m, m.stage.drain()
}

// refresh rebuilds both panels from the stage
func (m *PlayerUI) refresh() {
	width := m.dialogViewport.Width - 6
	m.dialogViewport.SetContent(renderDialogue(m.title, m.stage, m.interpreter.State(), m.selected, width))
	m.metaViewport.SetContent(renderActivity(m.stage, m.interpreter))
	m.dialogViewport.GotoTop()
	m.metaViewport.GotoBottom()
}

func renderDialogue(title string, st *stage, state playback.State, selected, width int) string {
	if width < 10 {
		width = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(strings.ToUpper(title)) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	if st.text != "" {
		content.WriteString(dialogueStyle.Render(wordwrap.String(st.text, width)) + "\n\n")
	}

	for i, c := range st.choices {
		line := fmt.Sprintf("%d. %s", i+1, c.Label)
		if i == selected && state == playback.StateWaitingChoice {
			content.WriteString(selectedChoiceStyle.Render("▶ "+line) + "\n")
		} else {
			content.WriteString(choiceStyle.Render("  "+line) + "\n")
		}
	}

	switch {
	case state == playback.StateWaitingDelay:
		content.WriteString("\n" + loadingStyle.Render("..."))
	case st.failure != nil:
		content.WriteString("\n" + errorStyle.Render(wordwrap.String("Playback failed: "+st.failure.Error(), width)))
	case st.done:
		content.WriteString("\n" + promptStyle.Render("The end. Press r to replay."))
	}
	return content.String()
}

func renderActivity(st *stage, interp *playback.Interpreter) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("PLAYBACK") + "\n\n")
	content.WriteString("State:\n" + interp.State().String() + "\n\n")
	content.WriteString(fmt.Sprintf("Visited:\n%d nodes\n\n", len(interp.Visited())))

	content.WriteString("Activity:\n")
	for _, line := range st.activity {
		content.WriteString("• " + line + "\n")
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• 1-9 / Enter: Choose\n")
	content.WriteString("• c: Copy line\n")
	content.WriteString("• r: Replay\n")
	content.WriteString("• q: Quit\n")
	return content.String()
}

func (m PlayerUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case delayDoneMsg:
		// keep playback moving behind the modal
		msg.fn()
		m.refresh()
		return m, m.stage.drain()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m PlayerUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Player?"))
	content.WriteString("\n\n")
	content.WriteString("Stop playing this cutscene?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m PlayerUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	dialogWidth := int(float64(m.width)*0.65) - 4
	metaWidth := m.width - dialogWidth - 6

	dialogPanel := dialogPanelStyle.Width(dialogWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.dialogViewport.View(),
			separatorStyle.Render(strings.Repeat("─", dialogWidth-4)),
			promptStyle.Render(m.status),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, dialogPanel, metaPanel)
}
