// Package format escapes user input for Telegram parse modes.
package format

import (
	"fmt"
	"strings"
)

// Mode is a Telegram Markdown dialect.
type Mode int

const (
	// MarkdownV1 is the legacy "Markdown" parse mode.
	MarkdownV1 Mode = 1
	// MarkdownV2 is the "MarkdownV2" parse mode.
	MarkdownV2 Mode = 2
)

var escapers = map[Mode]*strings.Replacer{
	MarkdownV1: escaper("_*`["),
	MarkdownV2: escaper(`\_*[]()~` + "`" + `>#+-=|{}.!`),
}

// escaper prefixes every rune of special with a backslash.
func escaper(special string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(special))
	for _, r := range special {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

// EscapeMarkdown escapes text so it renders literally under mode.
func EscapeMarkdown(text string, mode Mode) (string, error) {
	r, ok := escapers[mode]
	if !ok {
		return "", fmt.Errorf("format: unsupported markdown mode %d", mode)
	}
	return r.Replace(text), nil
}

// MD escapes text for the legacy Markdown parse mode used by the bot.
func MD(text string) string {
	return escapers[MarkdownV1].Replace(text)
}
