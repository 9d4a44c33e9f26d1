// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/feddict/feddict/internal/browse"
)

var (
	md = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

	// Definitions come from bulk uploads, so the converted HTML is always
	// passed through the UGC policy.
	sanitizer = bluemonday.UGCPolicy()
)

// Markdown converts a term definition to sanitized HTML. Conversion errors
// fall back to the escaped source text.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

// Highlight escapes text and wraps the first accent- and case-insensitive
// match of query in <mark>.
func Highlight(text, query string) template.HTML {
	start, end := browse.MatchIndex(text, query)
	if start < 0 {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(template.HTMLEscapeString(text[:start]) +
		"<mark>" + template.HTMLEscapeString(text[start:end]) + "</mark>" +
		template.HTMLEscapeString(text[end:]))
}
