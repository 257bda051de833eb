// Package tui is the terminal manual viewer.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ziadkadry99/manualview/internal/assets"
	"github.com/ziadkadry99/manualview/internal/audio"
	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/playback"
	"github.com/ziadkadry99/manualview/internal/source"
	"github.com/ziadkadry99/manualview/internal/viewer"
)

// Options configures the terminal viewer.
type Options struct {
	Loader   source.Loader
	ManualID int
	Resolver assets.Resolver
	// Prober checks images; nil skips the check.
	Prober assets.Prober
	// Locator finds narration clips on disk; nil disables sound output.
	Locator      audio.Locator
	AudioCommand []string
	AudioEnabled bool
	// Style is a glamour style name; empty picks one from the terminal.
	Style  string
	Logger *slog.Logger
}

// Reloader is implemented by sources that can re-read their document.
type Reloader interface {
	Reload() (*manual.Manual, error)
}

// ReplacedMsg delivers a manual that changed on disk.
type ReplacedMsg struct {
	Manual *manual.Manual
	Err    error
}

type manualLoadedMsg struct {
	ticket viewer.Ticket
	manual *manual.Manual
	err    error
}

type audioLoadedMsg struct {
	gen  uint64
	file string
	err  error
}

type audioExitMsg struct {
	gen uint64
	err error
}

type imageProbedMsg struct {
	view uint64
	err  error
}

// Model is the bubbletea model. It is used by pointer because the viewer
// reports audio requests through a callback into the model.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	logger *slog.Logger

	viewer *viewer.Viewer
	player *audio.ExecElement
	exits  chan audioExitMsg
	// pending is the newest clip request not yet turned into a command.
	pending *playback.Request
	// audioGen is the generation of the last requested clip.
	audioGen uint64
	// locateCancel cancels the lookup of the previous clip.
	locateCancel context.CancelFunc

	spinner    spinner.Model
	viewport   viewport.Model
	renderer   *glamour.TermRenderer
	probedView uint64

	width, height int
	status        string
	statusErr     bool
	copy          func(string) error
}

// New builds a model that starts loading opts.ManualID on Init.
func New(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		logger:   logger,
		exits:    make(chan audioExitMsg, 8),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
		copy:     clipboard.WriteAll,
	}

	vopts := viewer.Options{
		Resolver:     opts.Resolver,
		Element:      silentElement{},
		AudioEnabled: opts.AudioEnabled,
		Logger:       logger,
	}
	if opts.Locator != nil {
		m.player = audio.NewExecElement(opts.AudioCommand, opts.Locator, func(gen uint64, err error) {
			select {
			case m.exits <- audioExitMsg{gen: gen, err: err}:
			default:
			}
		}, logger)
		vopts.Element = &termElement{player: m.player}
		vopts.OnAudioRequest = func(req playback.Request) {
			m.pending = &req
			m.audioGen = req.Gen
		}
	}
	m.viewer = viewer.New(vopts)
	m.renderer = m.newRenderer()
	return m
}

// Viewer exposes the underlying viewer state.
func (m *Model) Viewer() *viewer.Viewer { return m.viewer }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(), m.waitForExit())
}

func (m *Model) load() tea.Cmd {
	ticket := m.viewer.Begin(m.opts.ManualID)
	m.probedView = 0
	ctx, loader := m.ctx, m.opts.Loader
	return func() tea.Msg {
		mm, err := loader.Load(ctx, ticket.ID)
		return manualLoadedMsg{ticket: ticket, manual: mm, err: err}
	}
}

func (m *Model) reload() tea.Cmd {
	r, ok := m.opts.Loader.(Reloader)
	if !ok {
		return tea.Batch(m.load(), m.spinner.Tick)
	}
	ticket := m.viewer.Begin(m.opts.ManualID)
	m.probedView = 0
	ctx, loader := m.ctx, m.opts.Loader
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		if _, err := r.Reload(); err != nil {
			return manualLoadedMsg{ticket: ticket, err: err}
		}
		mm, err := loader.Load(ctx, ticket.ID)
		return manualLoadedMsg{ticket: ticket, manual: mm, err: err}
	})
}

func (m *Model) waitForExit() tea.Cmd {
	exits := m.exits
	return func() tea.Msg {
		return <-exits
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-9, 3)
		m.renderer = m.newRenderer()
		if snap := m.viewer.Snapshot(); snap.Type == manual.TypeText {
			m.viewport.SetContent(m.renderMarkdown(snap.Text))
		}

	case spinner.TickMsg:
		if m.viewer.Phase() != viewer.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case manualLoadedMsg:
		if !m.viewer.Complete(m.ctx, msg.ticket, msg.manual, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Debug("manual load failed", "id", msg.ticket.ID, "error", msg.err)
		}

	case ReplacedMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Reload failed: %v", msg.Err), true)
			return m, nil
		}
		m.viewer.Replace(m.ctx, msg.Manual)
		m.setStatus("Manual reloaded", false)

	case audioLoadedMsg:
		if msg.gen != m.audioGen {
			break
		}
		m.stopLocate()
		if msg.err != nil {
			m.viewer.AudioFailed(msg.gen, msg.err)
			break
		}
		m.player.SetFile(msg.file)
		m.player.Bind(msg.gen)
		m.viewer.AudioReady(m.ctx, msg.gen)

	case audioExitMsg:
		if msg.err != nil {
			m.viewer.AudioFailed(msg.gen, msg.err)
		} else {
			m.viewer.AudioEnded(msg.gen)
		}
		cmds = append(cmds, m.waitForExit())

	case imageProbedMsg:
		if msg.err != nil {
			m.viewer.ImageFailed(msg.view)
		}

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.afterChange()...)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	m.status = ""

	switch key {
	case "q", "ctrl+c", "esc":
		m.Close()
		return nil, true
	case "r":
		return m.reload(), false
	}
	if m.viewer.Phase() != viewer.Ready {
		return nil, false
	}

	snap := m.viewer.Snapshot()
	switch key {
	case "left", "h":
		m.viewer.HandleKey(m.ctx, "left")
	case "right", "l":
		m.viewer.HandleKey(m.ctx, "right")
	case "tab":
		if n := len(snap.Tabs); n > 0 {
			m.viewer.SelectTab(m.ctx, (snap.Tab+1)%n)
		}
	case "shift+tab":
		if n := len(snap.Tabs); n > 0 {
			m.viewer.SelectTab(m.ctx, (snap.Tab+n-1)%n)
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(key[0] - '1')
		if err := m.viewer.SelectTab(m.ctx, i); err != nil {
			m.setStatus(fmt.Sprintf("No tab %s", key), true)
		}
	case "a":
		m.viewer.ToggleAudio(m.ctx)
		if m.viewer.AudioEnabled() {
			m.setStatus("Audio on", false)
		} else {
			m.setStatus("Audio off", false)
		}
	case "p":
		m.viewer.ResumeAudio(m.ctx)
	case "y":
		text := copyText(snap)
		if text == "" {
			break
		}
		if err := m.copy(text); err != nil {
			m.setStatus(fmt.Sprintf("Clipboard unavailable: %v", err), true)
		} else {
			m.setStatus("Copied to clipboard", false)
		}
	default:
		if snap.Type == manual.TypeText {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd, false
		}
	}
	return nil, false
}

// afterChange turns the newest audio request into a load command and starts
// an image check when the view changed. A lookup still running for an older
// clip is cancelled.
func (m *Model) afterChange() []tea.Cmd {
	var cmds []tea.Cmd
	if req := m.pending; req != nil {
		m.pending = nil
		m.stopLocate()
		ctx, cancel := context.WithCancel(m.ctx)
		m.locateCancel = cancel
		cmds = append(cmds, m.loadAudio(ctx, *req))
	}

	snap := m.viewer.Snapshot()
	if snap.Phase != viewer.Ready {
		return cmds
	}
	if snap.View != m.probedView {
		m.probedView = snap.View
		if snap.Type == manual.TypeText {
			m.viewport.SetContent(m.renderMarkdown(snap.Text))
			m.viewport.GotoTop()
		}
		if m.opts.Prober != nil && snap.ImagePath != "" {
			cmds = append(cmds, m.probeImage(snap.View, snap.ImagePath))
		}
	}
	return cmds
}

func (m *Model) loadAudio(ctx context.Context, req playback.Request) tea.Cmd {
	locator := m.opts.Locator
	return func() tea.Msg {
		if err := ctx.Err(); err != nil {
			return audioLoadedMsg{gen: req.Gen, err: err}
		}
		file, err := locator.Locate(ctx, req.Src)
		return audioLoadedMsg{gen: req.Gen, file: file, err: err}
	}
}

func (m *Model) probeImage(view uint64, path string) tea.Cmd {
	ctx, prober := m.ctx, m.opts.Prober
	return func() tea.Msg {
		return imageProbedMsg{view: view, err: prober.Probe(ctx, path)}
	}
}

func (m *Model) stopLocate() {
	if m.locateCancel != nil {
		m.locateCancel()
		m.locateCancel = nil
	}
}

// Close stops narration and cancels outstanding work.
func (m *Model) Close() {
	m.viewer.Close()
	m.cancel()
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m *Model) newRenderer() *glamour.TermRenderer {
	style := glamour.WithAutoStyle()
	if m.opts.Style != "" {
		style = glamour.WithStandardStyle(m.opts.Style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(max(m.width-4, 20)))
	if err != nil {
		m.logger.Debug("markdown renderer unavailable", "error", err)
		return nil
	}
	return r
}

func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (m *Model) View() string {
	snap := m.viewer.Snapshot()
	switch snap.Phase {
	case viewer.Loading, viewer.Empty:
		return lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("%s %s", m.spinner.View(), textStyle.Render(fmt.Sprintf("Loading manual %d...", snap.ManualID))),
			"",
			helpStyle.Render("q quit"),
		)
	case viewer.NotFound:
		return lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render(fmt.Sprintf("Manual %d not found.", snap.ManualID)),
			"",
			helpStyle.Render("r retry • q quit"),
		)
	case viewer.Failed:
		return lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render("Could not load the manual."),
			mutedStyle.Render(snap.Err),
			"",
			helpStyle.Render("r retry • q quit"),
		)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(snap.Title))
	b.WriteString("\n")
	if len(snap.Features) > 0 {
		b.WriteString(mutedStyle.Render("Features: " + strings.Join(snap.Features, ", ")))
		b.WriteString("\n")
	}
	if len(snap.SpecialFeatures) > 0 {
		b.WriteString(mutedStyle.Render("Special: " + strings.Join(snap.SpecialFeatures, ", ")))
		b.WriteString("\n")
	}
	b.WriteString(m.renderTabs(snap))
	b.WriteString("\n\n")
	b.WriteString(m.renderBody(snap))
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter(snap))
	return b.String()
}

func (m *Model) renderTabs(snap viewer.Snapshot) string {
	labels := make([]string, len(snap.Tabs))
	for i, t := range snap.Tabs {
		label := fmt.Sprintf("%d %s", i+1, t.Title)
		if t.Active {
			labels[i] = activeTabStyle.Render(label)
		} else {
			labels[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, labels...)
}

func (m *Model) renderBody(snap viewer.Snapshot) string {
	switch snap.Type {
	case manual.TypeList:
		lines := make([]string, len(snap.Items))
		for i, it := range snap.Items {
			lines[i] = textStyle.Render("• " + it.Text)
		}
		return strings.Join(lines, "\n")

	case manual.TypeSteps:
		var parts []string
		if snap.Warning != "" {
			parts = append(parts, warningStyle.Render("Warning: "+snap.Warning))
		}
		if snap.HasImage() {
			parts = append(parts, imageStyle.Render("[image] "+snap.ImagePath))
		} else {
			parts = append(parts, placeholderStyle.Render("(no illustration for this step)"))
		}
		parts = append(parts, textStyle.Render(snap.Text))
		if snap.Notes != "" {
			parts = append(parts, notesStyle.Render("Note: "+snap.Notes))
		}
		return strings.Join(parts, "\n\n")

	case manual.TypeText:
		return m.viewport.View()
	}
	return ""
}

func (m *Model) renderFooter(snap viewer.Snapshot) string {
	var left []string
	if snap.Type == manual.TypeSteps {
		left = append(left, fmt.Sprintf("Step %d of %d", snap.Step+1, snap.StepCount))
	}
	audioLabel := "audio off"
	if snap.Audio.Enabled {
		audioLabel = "audio on (" + snap.Audio.State.String() + ")"
	}
	left = append(left, audioLabel)

	lines := []string{statusStyle.Render(strings.Join(left, " • "))}
	if m.status != "" {
		if m.statusErr {
			lines = append(lines, errorStyle.Render(m.status))
		} else {
			lines = append(lines, statusStyle.Render(m.status))
		}
	}
	lines = append(lines, helpStyle.Render("←/→ step • tab/1-9 tabs • a audio • p replay • y copy • r reload • q quit"))
	return strings.Join(lines, "\n")
}

func copyText(snap viewer.Snapshot) string {
	if snap.Type == manual.TypeList {
		lines := make([]string, len(snap.Items))
		for i, it := range snap.Items {
			lines[i] = it.Text
		}
		return strings.Join(lines, "\n")
	}
	return snap.Text
}

// termElement hands playback to the external player. Sources are located
// asynchronously by the model, so SetSource only records the request.
type termElement struct {
	player *audio.ExecElement
}

func (e *termElement) SetSource(string) error { return nil }

func (e *termElement) Play(ctx context.Context) error { return e.player.Play(ctx) }

func (e *termElement) Pause() { e.player.Pause() }

func (e *termElement) ClearSource() { e.player.ClearSource() }

// silentElement is used when no audio output is configured.
type silentElement struct{}

func (silentElement) SetSource(string) error { return nil }

func (silentElement) Play(context.Context) error { return nil }

func (silentElement) Pause() {}

func (silentElement) ClearSource() {}
