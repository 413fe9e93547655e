// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/util"
)

// HandleModels lists the registry, marking the configured default and
// whether each model is offered for selection.
func HandleModels(cfg *config.Config, out io.Writer) error {
	fmt.Fprintln(out, TitleStyle.Render("Models"))

	ids := model.ModelIDs()
	for _, id := range cfg.Model.Choices {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	idWidth := 0
	for _, id := range ids {
		idWidth = max(idWidth, util.StringWidth(id))
	}

	for _, id := range ids {
		marker := "  "
		if id == cfg.Model.Default {
			marker = "* "
		}
		info, known := model.GetModelInfo(id)
		desc := "not in the built-in registry"
		tier := ""
		if known {
			desc, tier = info.Description, info.Tier
		}
		offered := ""
		if cfg.Model.Selectable && slices.Contains(cfg.Model.Choices, id) {
			offered = " [selectable]"
		}
		fmt.Fprintf(out, "%s%s  %s  %s%s\n",
			marker,
			util.PadRight(id, idWidth),
			util.PadRight(tier, 8),
			DimStyle.Render(desc),
			offered)
	}

	if !cfg.Model.Selectable {
		fmt.Fprintln(out, DimStyle.Render("\nModel selection is disabled; every session uses the default."))
	}
	return nil
}
