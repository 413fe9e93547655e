// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/util"
)

const emptyTranscriptHint = "Say something to start the conversation."

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.phase == PhaseCredential {
		return m.renderCredential()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderSpinner(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// SECTIONS
// =============================================================================

func (m Model) renderHeader() string {
	title := util.TruncateWidth(m.opts.Title, m.width)
	line := m.theme.Title.Render(title)
	if rest := m.width - util.StringWidth(title) - 2; rest > 3 {
		sub := util.TruncateWidth(model.DisplayName(m.sess.ModelID()), rest)
		line += "  " + m.theme.Subtitle.Render(sub)
	}
	return line + "\n"
}

func (m Model) renderSpinner() string {
	if !m.inFlight {
		return ""
	}
	return m.spinner.View() + " " + m.theme.Timestamp.Render(spinnerText)
}

func (m Model) renderInput() string {
	return m.theme.InputBox.Width(max(m.width-2, 1)).Render(m.input.View())
}

// renderStatusBar lays out model, message count and notice on the left and
// key help on the right. Plain text is truncated before styling so widths
// are measured on visible cells.
func (m Model) renderStatusBar() string {
	inner := max(m.width-2, 1) // StatusBar padding

	var help []string
	helpWidth := 0
	for _, b := range m.keys.ShortHelp(m.sess.Selectable()) {
		h := b.Help()
		help = append(help, m.theme.ShortcutKey.Render(h.Key)+m.theme.ShortcutDesc.Render(" "+h.Desc))
		helpWidth += util.StringWidth(h.Key) + 1 + util.StringWidth(h.Desc)
	}
	helpWidth += 2 * (len(help) - 1)
	right := strings.Join(help, m.theme.ShortcutDesc.Render("  "))

	plainLeft := m.sess.ModelID()
	if n := m.sess.Len(); n > 0 {
		plainLeft += " · " + pluralize(n, "message")
	}

	budget := inner
	if util.StringWidth(plainLeft)+helpWidth+4 <= inner {
		budget = inner - helpWidth - 2
	} else {
		right, helpWidth = "", 0
	}

	modelPart := util.TruncateWidth(m.sess.ModelID(), budget)
	left := m.theme.StatusModel.Render(modelPart)
	used := util.StringWidth(modelPart)
	if rest := strings.TrimPrefix(plainLeft, m.sess.ModelID()); rest != "" && used < budget {
		rest = util.TruncateWidth(rest, budget-used)
		left += m.theme.ShortcutDesc.Render(rest)
		used += util.StringWidth(rest)
	}
	if m.notice != "" && budget-used > 6 {
		style := m.theme.Notice
		if m.noticeKind.IsError() || m.noticeKind == session.KindUnexpectedShape {
			style = m.theme.ErrorText.Background(m.theme.StatusBar.GetBackground())
		}
		notice := util.TruncateWidth(m.notice, budget-used-3)
		left += m.theme.ShortcutDesc.Render(" · ") + style.Render(notice)
		used += 3 + util.StringWidth(notice)
	}

	gap := max(inner-used-helpWidth, 0)
	return m.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderCredential() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(m.opts.Title))
	b.WriteString("\n\n")
	b.WriteString("Enter your Gemini API key. It is kept in memory for this session only.\n\n")
	b.WriteString(m.theme.InputBox.Width(max(m.width-2, 1)).Render(m.keyInput.View()))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.theme.ErrorText.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Timestamp.Render("enter to continue · esc to quit"))
	return b.String()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// updateViewport re-renders the transcript into the viewport.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderTranscript() string {
	msgs := m.sess.Messages()
	if len(msgs) == 0 {
		return m.theme.Timestamp.Render(emptyTranscriptHint)
	}

	width := max(m.viewport.Width-2, 10)
	if width != m.renderedWidth {
		clear(m.rendered)
		m.renderedWidth = width
	}

	blocks := make([]string, 0, len(msgs))
	for i := range msgs {
		msg := &msgs[i]
		header := m.theme.RoleLabel(msg.Role) + " " +
			m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
		blocks = append(blocks, header+"\n"+m.renderBody(msg, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderBody(msg *model.Message, width int) string {
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}

	var out string
	kind := session.KindNone
	if msg.Role == model.RoleAssistant {
		kind = session.KindOfText(msg.Content)
	}
	switch {
	case msg.Role == model.RoleUser:
		out = lipgloss.NewStyle().Width(width).Render(msg.Content)
	case kind == session.KindNone:
		out = m.md.Render(msg.Content)
	default:
		out = m.theme.ReplyStyle(kind).Width(width).Render(msg.Content)
	}

	m.rendered[msg.ID] = out
	return out
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
