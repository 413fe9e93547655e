// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads gemchat's settings.
//
// A run starts from Default, overlays $GEMCHAT_CONFIG (or
// ~/.gemchat/config.toml) when the file exists, then applies GEMCHAT_*
// variables. A .env file in the working directory can supply those
// variables but never replaces ones already exported. Validate reports
// every bad field at once as ValidateErrors.
//
// The model table decides whether users may switch models, and the
// credential table decides whether the API key comes from the secrets
// file or is typed in at startup.
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	client := gemini.NewClient().WithTimeout(cfg.API.Timeout())
package config
