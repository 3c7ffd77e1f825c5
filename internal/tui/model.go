package tui

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/tumorscope/internal/history"
	"github.com/csheth/tumorscope/internal/inference"
	"github.com/csheth/tumorscope/internal/notify"
	"github.com/csheth/tumorscope/internal/preview"
	"github.com/csheth/tumorscope/internal/upload"
	"github.com/csheth/tumorscope/internal/workflow"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Endpoint      workflow.Endpoint
	EndpointLabel string
	// Timeout bounds each analysis request when positive.
	Timeout        time.Duration
	HistoryPath    string
	DropEvents     <-chan string
	DropDir        string
	ThumbnailWidth int
}

type model struct {
	config Config
	stage  stage

	controller *workflow.Controller
	previews   *preview.Registry
	tray       *notify.Tray
	jobs       *jobBus
	activeJobs map[string]jobSnapshot

	pathInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	layout    pageLayout

	helpVisible   bool
	infoMessage   string
	viewportDirty bool
	rendered      renderedResult
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	pathInput := textinput.New()
	pathInput.Placeholder = promptPlaceholder
	pathInput.CharLimit = 1024
	pathInput.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	previews := preview.NewRegistry(config.ThumbnailWidth)
	tray := notify.NewTray(3)
	controller := workflow.New(workflow.Config{
		Endpoint: config.Endpoint,
		Notifier: tray,
		Previews: previews,
		Timeout:  config.Timeout,
	})

	return &model{
		config:        config,
		stage:         stageMain,
		controller:    controller,
		previews:      previews,
		tray:          tray,
		jobs:          newJobBus(),
		activeJobs:    map[string]jobSnapshot{},
		pathInput:     pathInput,
		spinner:       spin,
		viewport:      vp,
		layout:        newPageLayout(),
		viewportDirty: true,
		infoMessage:   "Press o to choose an MRI image or paste its path.",
	}
}

func (m *model) Init() tea.Cmd {
	return waitForDrop(m.config.DropEvents)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if toasts := m.scheduleToasts(); toasts != nil {
		cmd = tea.Batch(cmd, toasts)
	}
	return m, cmd
}

func (m *model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.controller.State().Busy {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.pathInput.Width = m.layout.viewportWidth - 4
		m.markViewportDirty()
		return nil
	case jobSignalMsg:
		m.activeJobs[msg.Snapshot.ID] = msg.Snapshot
		return nil
	case jobResultEnvelope:
		delete(m.activeJobs, msg.Snapshot.ID)
		if msg.Payload == nil {
			return nil
		}
		return m.update(msg.Payload)
	case analysisDoneMsg:
		return m.handleAnalysisDone(msg)
	case historySavedMsg:
		if msg.err != nil {
			log.Printf("[tui] history save failed: %v", msg.err)
			m.infoMessage = fmt.Sprintf("History not saved: %v", msg.err)
			return nil
		}
		m.infoMessage = "Saved to history: " + filepath.Base(msg.path)
		return nil
	case dropMsg:
		m.selectPath(msg.path, workflow.SourceDrop)
		return waitForDrop(m.config.DropEvents)
	case dropClosedMsg:
		log.Printf("[tui] drop folder closed")
		return nil
	case toastExpiredMsg:
		m.tray.Dismiss(msg.id)
		return nil
	}
	return nil
}

func (m *model) handleKey(key tea.KeyMsg) tea.Cmd {
	if key.Type == tea.KeyCtrlC {
		return m.quit()
	}
	if m.stage == stagePrompt {
		return m.handlePromptKey(key)
	}
	if isPaste(key) {
		m.selectPath(firstLine(string(key.Runes)), workflow.SourceDrop)
		return nil
	}
	switch key.String() {
	case "esc", "q":
		return m.quit()
	case "o":
		return m.openPrompt()
	case "enter", "a":
		_, cmd := m.beginAnalysis()
		return cmd
	case "r":
		m.controller.Reset()
		m.infoMessage = "Cleared. Press o to choose another image."
		m.markViewportDirty()
		return nil
	case "?":
		m.helpVisible = !m.helpVisible
		return nil
	case "up", "k", "down", "j", "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return cmd
	}
	return nil
}

func (m *model) handlePromptKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		m.closePrompt()
		m.infoMessage = "Selection canceled."
		return nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.pathInput.Value())
		m.closePrompt()
		if value == "" {
			m.infoMessage = "No path entered."
			return nil
		}
		m.selectPath(value, workflow.SourceChooser)
		return nil
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(key)
	return cmd
}

func (m *model) openPrompt() tea.Cmd {
	m.stage = stagePrompt
	m.pathInput.SetValue("")
	m.pathInput.Focus()
	return textinput.Blink
}

func (m *model) closePrompt() {
	m.stage = stageMain
	m.pathInput.SetValue("")
	m.pathInput.Blur()
}

func (m *model) selectPath(path string, source workflow.Source) {
	file, err := upload.Open(path)
	if err != nil {
		log.Printf("[tui] open %q: %v", path, err)
		m.tray.Notify("Could not open file", err.Error(), notify.Destructive)
		return
	}
	var accepted bool
	if source == workflow.SourceDrop {
		accepted = m.controller.Drop(file)
	} else {
		accepted = m.controller.Choose(file)
	}
	if !accepted {
		return
	}
	m.infoMessage = fmt.Sprintf("Selected %s. Press enter to analyze.", file.Name)
	m.markViewportDirty()
}

// beginAnalysis submits the current selection and returns the job command.
func (m *model) beginAnalysis() (*workflow.Submission, tea.Cmd) {
	sub, ok := m.controller.Analyze()
	if !ok {
		if m.controller.State().Busy {
			m.infoMessage = "Analysis already running."
		} else {
			m.infoMessage = "Choose an image first (press o)."
		}
		return nil, nil
	}
	m.infoMessage = fmt.Sprintf("Analyzing %s…", sub.File.Name)
	m.markViewportDirty()
	return sub, tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindAnalyze, analyzeJob(sub)))
}

func (m *model) handleAnalysisDone(msg analysisDoneMsg) tea.Cmd {
	m.controller.Complete(msg.outcome)
	m.markViewportDirty()
	m.viewport.GotoTop()

	state := m.controller.State()
	switch {
	case msg.outcome.Err == nil && state.Result != nil && state.Result == msg.outcome.Result:
		m.infoMessage = fmt.Sprintf("Analysis of %s complete.", msg.file.Name)
		if m.config.HistoryPath == "" {
			return nil
		}
		record := history.NewRecord(msg.file, state.Result, m.config.EndpointLabel)
		return m.jobs.Start(jobKindHistory, saveHistoryJob(m.config.HistoryPath, record))
	case msg.outcome.Err != nil && state.Error != "":
		m.infoMessage = "Analysis failed. Press enter to retry."
	}
	return nil
}

func (m *model) scheduleToasts() tea.Cmd {
	fresh := m.tray.TakeFresh()
	if len(fresh) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(fresh))
	for _, toast := range fresh {
		cmds = append(cmds, expireToastCmd(toast.ID, toast.Duration))
	}
	return tea.Batch(cmds...)
}

func (m *model) quit() tea.Cmd {
	m.jobs.Stop()
	m.controller.Close()
	return tea.Quit
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if !m.viewportDirty {
		return
	}
	m.viewport.SetContent(m.buildResultsContent())
	m.viewportDirty = false
}

func (m *model) currentResult() *inference.Result {
	return m.controller.State().Result
}

// isPaste reports whether a key event carries more than one rune at once, which is how
// a path dropped onto the terminal arrives.
func isPaste(key tea.KeyMsg) bool {
	return key.Type == tea.KeyRunes && len(key.Runes) > 1
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexAny(s, "\r\n"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
