// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/gemchat/internal/session"
)

// replyMsg carries the outcome of session.Submit back to Update.
type replyMsg struct {
	text  string // what the user typed
	reply session.Reply
	err   error
}

// noticeMsg replaces the status bar notice.
type noticeMsg struct {
	text string
	kind session.Kind
}
