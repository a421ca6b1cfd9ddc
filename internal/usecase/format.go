package usecase

import (
	"fmt"
	"html"
	"unicode/utf8"

	"NewsRelay/internal/domain"
)

// MaxMessageLength is the Telegram limit for a single text message, in characters.
const MaxMessageLength = 4096

const ellipsis = "…"

// FormatMessage renders an article as an HTML chat message with a link to the original.
// The translation is shortened when the whole message would exceed MaxMessageLength.
func FormatMessage(a domain.Article, linkText, buttonText string) domain.Message {
	head := fmt.Sprintf("📰 <b>%s</b>\n\n", html.EscapeString(a.Title))
	tail := fmt.Sprintf("\n\n<a href=\"%s\">%s</a>", html.EscapeString(a.SourceURL), html.EscapeString(linkText))
	body := html.EscapeString(a.TranslatedTitle)

	budget := MaxMessageLength - utf8.RuneCountInString(head) - utf8.RuneCountInString(tail)
	body = truncateRunes(body, budget)

	msg := domain.Message{Text: head + body + tail}
	if buttonText != "" && a.SourceURL != "" {
		msg.ButtonText = buttonText
		msg.ButtonURL = a.SourceURL
	}
	return msg
}

// truncateRunes cuts s to at most limit runes, ending with an ellipsis when shortened.
// It never splits an HTML entity produced by escaping.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)[:limit-1]
	for i := len(runes) - 1; i >= 0 && i >= len(runes)-6; i-- {
		if runes[i] == ';' {
			break
		}
		if runes[i] == '&' {
			runes = runes[:i]
			break
		}
	}
	return string(runes) + ellipsis
}
