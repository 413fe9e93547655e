// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/session"
)

// =============================================================================
// THEME TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
	if got := theme.Title.Render("test"); !strings.Contains(got, "test") {
		t.Errorf("Title.Render() = %q, want it to contain %q", got, "test")
	}
}

func TestTheme_SetSize(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(120, 40)
	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize(120, 40) = %dx%d", theme.Width, theme.Height)
	}
}

func TestTheme_RoleLabel(t *testing.T) {
	theme := NewTheme()
	tests := []struct {
		role model.Role
		want string
	}{
		{model.RoleUser, "You"},
		{model.RoleAssistant, "Gemini"},
	}
	for _, tt := range tests {
		if got := theme.RoleLabel(tt.role); !strings.Contains(got, tt.want) {
			t.Errorf("RoleLabel(%s) = %q, want it to contain %q", tt.role, got, tt.want)
		}
	}
}

func TestTheme_ReplyStyle(t *testing.T) {
	theme := NewTheme()
	// Each kind maps to some style; only check the text survives rendering.
	for _, kind := range []session.Kind{
		session.KindNone,
		session.KindMissingCredential,
		session.KindTransport,
		session.KindUnexpectedShape,
		session.KindUncategorized,
	} {
		if got := theme.ReplyStyle(kind).Render("x"); !strings.Contains(got, "x") {
			t.Errorf("ReplyStyle(%s).Render() = %q", kind, got)
		}
	}
}

// =============================================================================
// MARKDOWN TESTS
// =============================================================================

func TestResolveStyle_Explicit(t *testing.T) {
	for _, style := range []string{"dark", "light", "notty"} {
		if got := ResolveStyle(style); got != style {
			t.Errorf("ResolveStyle(%q) = %q", style, got)
		}
	}
}

func TestResolveStyle_AutoWithoutTTY(t *testing.T) {
	// go test does not attach stdout to a terminal.
	if got := ResolveStyle("auto"); got != "notty" {
		t.Errorf("ResolveStyle(auto) = %q, want notty", got)
	}
}

func TestMarkdown_Render(t *testing.T) {
	md := NewMarkdown("notty", 40)
	got := md.Render("# Title\n\nsome **bold** text")
	if !strings.Contains(got, "Title") || !strings.Contains(got, "bold") {
		t.Errorf("Render() = %q, want title and body text", got)
	}
	if strings.HasPrefix(got, "\n") || strings.HasSuffix(got, "\n") {
		t.Errorf("Render() = %q, want no surrounding newlines", got)
	}
}

func TestMarkdown_SetWidth(t *testing.T) {
	md := NewMarkdown("notty", 0)
	if md.Width() != DefaultWrap {
		t.Errorf("Width() = %d, want %d", md.Width(), DefaultWrap)
	}
	md.SetWidth(30)
	if md.Width() != 30 {
		t.Errorf("Width() = %d, want 30", md.Width())
	}
	if md.Style() != "notty" {
		t.Errorf("Style() = %q, want notty", md.Style())
	}
}
