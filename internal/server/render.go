// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	_ "embed"
	"html/template"
	"log"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/session"
)

const (
	// DefaultTitle heads the chat page.
	DefaultTitle = "Chatbot (Gemini Flash)"

	inputPlaceholder = "What is up?"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// ============================================================================
// MARKDOWN
// ============================================================================

// newMarkdown builds the reply renderer. Without html.WithUnsafe goldmark
// drops raw HTML blocks and dangerous link targets.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
}

// renderMarkdown converts a reply to HTML. On failure the text is escaped
// and shown as is.
func renderMarkdown(md goldmark.Markdown, src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		log.Printf("MARKDOWN_FAILED | err=%v", err)
		return template.HTML("<p>" + template.HTMLEscapeString(src) + "</p>")
	}
	return template.HTML(buf.String())
}

// ============================================================================
// PAGE DATA
// ============================================================================

type pageMessage struct {
	Label string
	Class string
	// Text is set for user messages and failed replies, HTML for answers.
	Text string
	HTML template.HTML
}

type modelOption struct {
	ID       string
	Name     string
	Selected bool
}

type pageData struct {
	Title       string
	Placeholder string
	ModelName   string
	Selectable  bool
	Models      []modelOption
	NeedsKey    bool
	Notice      string
	Messages    []pageMessage
}

// buildPage assembles the template data for sess.
func (s *Server) buildPage(sess *session.Session, notice string) pageData {
	data := pageData{
		Title:       s.title,
		Placeholder: inputPlaceholder,
		ModelName:   model.DisplayName(sess.ModelID()),
		Selectable:  sess.Selectable(),
		NeedsKey:    s.promptForKey && !sess.HasCredential(),
		Notice:      notice,
	}
	if data.Selectable {
		for _, id := range sess.Choices() {
			data.Models = append(data.Models, modelOption{
				ID:       id,
				Name:     model.DisplayName(id),
				Selected: id == sess.ModelID(),
			})
		}
	}

	for _, m := range sess.Messages() {
		pm := pageMessage{Label: m.Role.DisplayName(), Class: string(m.Role)}
		switch kind := session.KindOfText(m.Content); {
		case m.Role == model.RoleUser:
			pm.Text = m.Content
		case kind != session.KindNone:
			pm.Class += " " + kind.String()
			pm.Text = m.Content
		default:
			pm.HTML = renderMarkdown(s.md, m.Content)
		}
		data.Messages = append(data.Messages, pm)
	}
	return data
}
