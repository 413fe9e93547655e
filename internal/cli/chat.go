// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// =============================================================================
// LINE EDITING
// =============================================================================

// ChatCLI provides input history and line editing for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor. historyFile may be empty.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeSlashCommand)

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line. Non-empty lines are added to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// slashCommands is the REPL command list, also used for tab completion.
var slashCommands = []struct {
	name string
	desc string
}{
	{"/help", "Show this help"},
	{"/model", "Show models, or /model ID to switch"},
	{"/history", "Show the conversation so far"},
	{"/quit", "Leave the chat (also /exit, Ctrl+D)"},
}

func completeSlashCommand(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, line) {
			out = append(out, c.name)
		}
	}
	return out
}

// =============================================================================
// REPL
// =============================================================================

// REPL runs the line-mode chat loop over one session.
type REPL struct {
	sess *session.Session
	md   *styles.Markdown
	out  io.Writer

	// read returns io.EOF or liner.ErrPromptAborted to end the loop.
	read func(prompt string) (string, error)

	// showProgress prints a transient "Generating response..." line.
	showProgress bool

	width int
}

// HandleChat runs the chat command.
func HandleChat(app *App) error {
	key, err := app.ResolveKey()
	if err != nil {
		if app.PromptsForKey() || !errors.Is(err, gemini.ErrMissingCredential) {
			return err
		}
		// Secret store without a key: the session says so on the first turn.
		log.Printf("CREDENTIAL_MISSING | source=%s", app.Config.Credential.Source)
	}

	sess := app.NewSession(key)
	defer sess.Close()

	historyFile := ""
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, "chat_history")
	}
	line := NewChatCLI(historyFile)
	defer line.Close()

	width := markdownWidthFor(app)

	r := &REPL{
		sess:         sess,
		md:           styles.NewMarkdown(markdownStyleFor(app), width),
		out:          os.Stdout,
		read:         line.ReadInput,
		showProgress: IsStdoutTTY(),
		width:        width,
	}
	r.printWelcome()
	return r.Run(context.Background())
}

// Run reads and answers lines until /quit, Ctrl+C or end of input.
func (r *REPL) Run(ctx context.Context) error {
	for {
		input, err := r.read("> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.out, DimStyle.Render("Goodbye."))
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if quit := r.handleSlashCommand(input); quit {
				fmt.Fprintln(r.out, DimStyle.Render("Goodbye."))
				return nil
			}
			continue
		}
		r.processMessage(ctx, input)
	}
}

func (r *REPL) processMessage(ctx context.Context, input string) {
	if r.showProgress {
		fmt.Fprint(r.out, DimStyle.Render("Generating response..."))
	}
	reply, err := r.sess.Submit(ctx, input)
	if r.showProgress {
		fmt.Fprint(r.out, "\r\033[K")
	}

	if err != nil {
		fmt.Fprintln(r.out, ErrorStyle.Render(err.Error()))
		return
	}
	r.printReply(reply)
}

func (r *REPL) printReply(reply session.Reply) {
	fmt.Fprintln(r.out, AssistantStyle.Render(model.RoleAssistant.DisplayName()+":"))
	if reply.Kind == session.KindNone {
		fmt.Fprintln(r.out, r.md.Render(reply.Text))
	} else {
		fmt.Fprintln(r.out, replyStyle(reply.Kind).Render(reply.Text))
	}
	if reply.Kind.IsError() && !reply.Recorded && reply.Kind != session.KindMissingCredential {
		fmt.Fprintln(r.out, DimStyle.Render("(not kept in the conversation)"))
	}
	fmt.Fprintln(r.out)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs a /command and reports whether to quit.
func (r *REPL) handleSlashCommand(input string) bool {
	fields := strings.Fields(input)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return true
	case "/help", "/h", "/?":
		r.printHelp()
	case "/model", "/models", "/m":
		r.handleModelCommand(args)
	case "/history":
		r.printHistory()
	default:
		fmt.Fprintf(r.out, "%s unknown command %s. Type /help for the list.\n",
			ErrorStyle.Render("[ERROR]"), cmd)
	}
	return false
}

func (r *REPL) handleModelCommand(args []string) {
	if len(args) == 0 {
		current := r.sess.ModelID()
		fmt.Fprintln(r.out, TitleStyle.Render("Models"))
		for _, id := range r.sess.Choices() {
			marker := "  "
			if id == current {
				marker = "* "
			}
			fmt.Fprintf(r.out, "%s%s %s\n", marker, id, DimStyle.Render(model.DisplayName(id)))
		}
		if !r.sess.Selectable() {
			fmt.Fprintln(r.out, DimStyle.Render("Model selection is disabled in the config."))
		}
		return
	}

	if err := r.sess.SetModel(args[0]); err != nil {
		fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[ERROR]"), err)
		return
	}
	log.Printf("MODEL_SWITCH | session=%s model=%s", r.sess.ID(), args[0])
	fmt.Fprintf(r.out, "%s %s\n", SuccessStyle.Render("Model:"), model.DisplayName(args[0]))
}

func (r *REPL) printHistory() {
	msgs := r.sess.Messages()
	if len(msgs) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No messages yet."))
		return
	}
	preview := max(r.width-18, 20)
	for i := range msgs {
		m := &msgs[i]
		label := UserStyle
		if m.Role == model.RoleAssistant {
			label = AssistantStyle
		}
		fmt.Fprintf(r.out, "%3d %s %s %s\n",
			i+1,
			DimStyle.Render(m.Timestamp.Format("15:04")),
			label.Render(fmt.Sprintf("%-6s", m.Role.DisplayName())),
			m.Preview(preview))
	}
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, TitleStyle.Render("Commands"))
	for _, c := range slashCommands {
		fmt.Fprintf(r.out, "  %-10s %s\n", c.name, DimStyle.Render(c.desc))
	}
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, TitleStyle.Render("Chatbot (Gemini Flash)"))
	fmt.Fprintf(r.out, "%s %s\n", DimStyle.Render("Model:"), model.DisplayName(r.sess.ModelID()))
	fmt.Fprintln(r.out, DimStyle.Render("Type a message, /help for commands, Ctrl+D to quit."))
	fmt.Fprintln(r.out)
}
