// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the gemchat front-ends.
//
// # Key Functions
//
// Text:
//   - NormalizeInput: trims and NFC-normalizes text typed by a user
//   - TruncateWidth: display-width truncation with ellipsis (CJK aware)
//   - SingleLine: collapses whitespace runs for one-line previews
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	text, ok := util.NormalizeInput(raw)
//	status := util.TruncateWidth(modelName, 20)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
