// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/ui/styles"
	"github.com/jeranaias/gemchat/internal/util"
)

const (
	// DefaultTitle is the header text.
	DefaultTitle = "Chatbot (Gemini Flash)"

	inputPlaceholder = "What is up?"
	spinnerText      = "Generating response..."
	maxInputChars    = 16000
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is the screen the chat view is showing.
type Phase int

const (
	PhaseCredential Phase = iota // Asking for an API key
	PhaseChat                    // Transcript and input
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configure the chat view.
type Options struct {
	// Title is shown in the header.
	Title string

	// PromptForKey shows the credential screen while the session has no key.
	PromptForKey bool

	// MarkdownStyle is the glamour style: auto, dark, light or notty.
	MarkdownStyle string

	// WordWrap caps the reply width; 0 follows the terminal.
	WordWrap int

	// CopyToClipboard overrides the system clipboard.
	CopyToClipboard func(string) error
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	sess  *session.Session
	opts  Options
	theme *styles.Theme
	md    *styles.Markdown
	keys  KeyMap

	phase Phase

	width  int
	height int
	ready  bool

	viewport viewport.Model
	input    textinput.Model
	keyInput textinput.Model
	spinner  spinner.Model

	inFlight bool

	// Status bar notice; cleared on the next submit.
	notice     string
	noticeKind session.Kind

	// Rendered message bodies keyed by message ID, valid for renderedWidth.
	rendered      map[string]string
	renderedWidth int
}

// New creates a chat view for sess.
func New(sess *session.Session, theme *styles.Theme, opts Options) Model {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.CopyToClipboard == nil {
		opts.CopyToClipboard = clipboard.WriteAll
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = inputPlaceholder
	ti.CharLimit = maxInputChars
	ti.PromptStyle = theme.InputPrompt

	ki := textinput.New()
	ki.Prompt = "key: "
	ki.Placeholder = "paste your Gemini API key"
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '•'
	ki.PromptStyle = theme.InputPrompt

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := Model{
		sess:     sess,
		opts:     opts,
		theme:    theme,
		md:       styles.NewMarkdown(opts.MarkdownStyle, opts.WordWrap),
		keys:     DefaultKeyMap(),
		viewport: viewport.New(0, 0),
		input:    ti,
		keyInput: ki,
		spinner:  sp,
		rendered: make(map[string]string),
	}

	if opts.PromptForKey && !sess.HasCredential() {
		m.phase = PhaseCredential
		m.keyInput.Focus()
	} else {
		m.phase = PhaseChat
		m.input.Focus()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Phase returns the current screen.
func (m Model) Phase() Phase {
	return m.phase
}

// InFlight reports whether a reply is being generated.
func (m Model) InFlight() bool {
	return m.inFlight
}

// Notice returns the status bar notice.
func (m Model) Notice() string {
	return m.notice
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		return m.handleReply(msg)

	case noticeMsg:
		m.notice, m.noticeKind = msg.text, msg.kind
		return m, nil

	case spinner.TickMsg:
		if !m.inFlight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		// The user turn lands in the transcript once Submit takes the lock.
		m.updateViewport()
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)

	// Layout: header + viewport + spinner line + bordered input + status bar.
	const (
		headerHeight    = 2
		spinnerHeight   = 1
		inputAreaHeight = 3
		statusBarHeight = 1
	)
	vpHeight := m.height - headerHeight - spinnerHeight - inputAreaHeight - statusBarHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = vpHeight

	// Border (2) + padding (2) + prompt (2).
	m.input.Width = max(m.width-6, 10)
	m.keyInput.Width = max(m.width-9, 10)

	wrap := m.width - 2
	if m.opts.WordWrap > 0 && m.opts.WordWrap < wrap {
		wrap = m.opts.WordWrap
	}
	m.md.SetWidth(max(wrap, 20))

	m.ready = true
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.phase == PhaseCredential {
		return m.handleCredentialKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.CycleModel):
		return m.cycleModel()

	case key.Matches(msg, m.keys.CopyReply):
		return m, m.copyLastReply()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m Model) handleCredentialKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Submit) {
		return m.updateInputs(msg)
	}

	entered, ok := util.NormalizeInput(m.keyInput.Value())
	if !ok {
		m.notice, m.noticeKind = "Enter an API key to continue.", session.KindMissingCredential
		return m, nil
	}
	if err := m.sess.SetCredential(entered); err != nil {
		m.notice, m.noticeKind = err.Error(), session.KindUncategorized
		return m, nil
	}

	log.Printf("CREDENTIAL_SET | session=%s source=prompt", m.sess.ID())
	m.keyInput.Reset()
	m.keyInput.Blur()
	m.phase = PhaseChat
	m.notice = ""
	cmd := m.input.Focus()
	return m, cmd
}

// submit starts a turn. The session guards against concurrent turns as
// well; the inFlight check only avoids a pointless Cmd.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.inFlight {
		m.notice, m.noticeKind = session.ErrTurnInFlight.Error(), session.KindNone
		return m, nil
	}
	text := m.input.Value()
	if _, ok := util.NormalizeInput(text); !ok {
		return m, nil
	}

	m.input.Reset()
	m.inFlight = true
	m.notice = ""
	m.viewport.GotoBottom()
	return m, tea.Batch(submitCmd(m.sess, text), m.spinner.Tick)
}

// submitCmd runs one turn off the UI goroutine.
func submitCmd(sess *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := sess.Submit(context.Background(), text)
		return replyMsg{text: text, reply: reply, err: err}
	}
}

func (m Model) handleReply(msg replyMsg) (tea.Model, tea.Cmd) {
	m.inFlight = false

	switch {
	case msg.err != nil:
		m.notice, m.noticeKind = msg.err.Error(), session.KindUncategorized

	case msg.reply.Kind == session.KindMissingCredential:
		// Nothing was appended; give the text back.
		m.input.SetValue(msg.text)
		m.notice, m.noticeKind = msg.reply.Text, msg.reply.Kind
		if m.opts.PromptForKey {
			m.phase = PhaseCredential
			m.input.Blur()
			m.updateViewport()
			cmd := m.keyInput.Focus()
			return m, cmd
		}

	case !msg.reply.Recorded:
		m.notice, m.noticeKind = util.SingleLine(msg.reply.Text), msg.reply.Kind
	}

	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) cycleModel() (tea.Model, tea.Cmd) {
	if !m.sess.Selectable() {
		m.notice, m.noticeKind = session.ErrModelFixed.Error(), session.KindNone
		return m, nil
	}
	next := model.NextModel(m.sess.Choices(), m.sess.ModelID())
	if err := m.sess.SetModel(next); err != nil {
		m.notice, m.noticeKind = err.Error(), session.KindUncategorized
		return m, nil
	}
	log.Printf("MODEL_SWITCH | session=%s model=%s", m.sess.ID(), next)
	m.notice, m.noticeKind = "Model: "+model.DisplayName(next), session.KindNone
	return m, nil
}

func (m Model) copyLastReply() tea.Cmd {
	reply, ok := m.sess.LastReply()
	if !ok || reply == "" {
		return func() tea.Msg {
			return noticeMsg{text: "No reply to copy"}
		}
	}
	copyFn := m.opts.CopyToClipboard
	return func() tea.Msg {
		if err := copyFn(reply); err != nil {
			return noticeMsg{text: "Failed to copy: " + err.Error(), kind: session.KindUncategorized}
		}
		return noticeMsg{text: fmt.Sprintf("Copied reply (%d chars)", len([]rune(reply)))}
	}
}

// updateInputs forwards msg to whichever input has focus and the viewport.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.phase == PhaseCredential {
		m.keyInput, cmd = m.keyInput.Update(msg)
		return m, cmd
	}
	m.input, cmd = m.input.Update(msg)

	if _, isKey := msg.(tea.KeyMsg); isKey {
		return m, cmd
	}
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(cmd, vpCmd)
}
