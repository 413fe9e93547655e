// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the terminal chat view for gemchat.

The Model is a Bubble Tea model wrapped around one *session.Session. The
session owns the transcript; the model only renders it and forwards input.

# Phases

  - PhaseCredential: shown when the key comes from a prompt and none is set.
    A masked text input collects the key and hands it to the session.
  - PhaseChat: the transcript viewport, the "What is up?" input, and a
    status bar with the active model.

# Turns

Enter runs session.Submit in a tea.Cmd so the UI keeps drawing while the
request is out. The spinner shows "Generating response..." until a replyMsg
arrives. Failed turns that were not recorded are shown in the status bar.

# Keys

	enter       send the message
	ctrl+t      next model (when selectable)
	ctrl+y      copy the last reply
	pgup/pgdn   scroll the transcript
	esc/ctrl+c  quit
*/
package chat
