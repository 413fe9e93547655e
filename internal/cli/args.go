// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
)

// ArgParser separates a subcommand's arguments into flags and words.
// "--name value", "--name=value" and "-n value" all set a flag; a flag
// followed by another flag or by nothing is a switch.
//
//	p := NewArgParser([]string{"set", "model.default", "gemini-2.5-pro"})
//	p.Subcommand()  // "set"
//	p.Positional(1) // "model.default"
type ArgParser struct {
	words []string
	flags map[string]flagValue
}

type flagValue struct {
	value string
	on    bool
}

// NewArgParser parses raw.
func NewArgParser(raw []string) *ArgParser {
	p := &ArgParser{flags: make(map[string]flagValue)}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			p.words = append(p.words, arg)
			continue
		}

		name, value, hasEq := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		switch {
		case hasEq:
			p.flags[name] = flagValue{value: value, on: value != "false"}
		case i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-"):
			i++
			p.flags[name] = flagValue{value: raw[i], on: true}
		default:
			p.flags[name] = flagValue{on: true}
		}
	}
	return p
}

func (p *ArgParser) lookup(name string) (flagValue, bool) {
	f, ok := p.flags[strings.TrimLeft(name, "-")]
	return f, ok
}

// Subcommand is the first word, or "".
func (p *ArgParser) Subcommand() string {
	return p.Positional(0)
}

// Flag returns the value given to a flag. Switches have no value.
func (p *ArgParser) Flag(name string) string {
	f, _ := p.lookup(name)
	return f.value
}

// Switch reports whether a flag was given and not set to "false".
func (p *ArgParser) Switch(name string) bool {
	f, _ := p.lookup(name)
	return f.on
}

// HasFlag reports whether a flag appeared at all.
func (p *ArgParser) HasFlag(name string) bool {
	_, ok := p.lookup(name)
	return ok
}

// Positional returns word i, or "" when out of range.
func (p *ArgParser) Positional(i int) string {
	if i < 0 || i >= len(p.words) {
		return ""
	}
	return p.words[i]
}

// Words returns how many non-flag arguments were given.
func (p *ArgParser) Words() int {
	return len(p.words)
}

// Join rejoins the words from i onward with single spaces, for questions
// and values typed without quotes.
func (p *ArgParser) Join(i int) string {
	if i < 0 || i >= len(p.words) {
		return ""
	}
	return strings.Join(p.words[i:], " ")
}
