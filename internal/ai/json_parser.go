// Package ai turns a goal input into a structured plan by asking a chat model,
// and falls back to a minimal local plan whenever that fails.
package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Model replies are not guaranteed to be bare JSON: they arrive fenced,
// prefixed with prose, or with JavaScript-isms. These patterns repair the
// common cases.
var (
	// Newlines around the fence are optional; models sometimes inline them
	codeFenceStartRegex = regexp.MustCompile(`(?s)^` + "`" + `{3}(?:json|javascript|js)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}\s*$`)
	codeFenceAnyRegex   = regexp.MustCompile(`(?s)` + "`" + `{3}(?:json|javascript|js)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}`)

	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyRegex       = regexp.MustCompile(`([{,]\s*)([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	singleLineCommentRegex = regexp.MustCompile(`(?m)^\s*//.*$`)
	multiLineCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// Greedy so nested objects stay whole
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// defaultMaxInputSize bounds what Parse will attempt. A 6000-token plan is
// far below this.
const defaultMaxInputSize = 1 << 20

// ParseResult is the outcome of Parse. Error is set when Success is false.
type ParseResult[T any] struct {
	Success      bool
	Data         T
	Error        string
	OriginalText string
}

// ParseOptions configures Parse.
type ParseOptions struct {
	Context        string // prefix for error messages and log lines
	DisableCleanup bool   // only try a direct decode
	MaxInputSize   int    // 0 means defaultMaxInputSize
}

// Parse decodes a model reply into T, trying progressively more forgiving
// strategies:
//  1. Direct JSON decode
//  2. Strip markdown code fences
//  3. Remove trailing commas and comments, quote bare keys
//  4. Extract the outermost {...} from mixed prose
//
// A reply whose JSON does not match T's field types fails every strategy.
func Parse[T any](text string, opts ParseOptions) ParseResult[T] {
	limit := opts.MaxInputSize
	if limit == 0 {
		limit = defaultMaxInputSize
	}
	if len(text) > limit {
		return createError[T](
			fmt.Sprintf("input exceeds size limit (%d > %d bytes)", len(text), limit),
			truncate(text, 1000),
			opts.Context,
		)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return createError[T]("empty input", text, opts.Context)
	}

	result, err := tryDirectParse[T](trimmed)
	if err == nil {
		return ParseResult[T]{Success: true, Data: result, OriginalText: text}
	}
	if opts.DisableCleanup {
		return createError[T](err.Error(), text, opts.Context)
	}

	slog.Debug("direct JSON parse failed, trying cleanup strategies",
		"error", err.Error(),
		"textPreview", truncate(text, 100),
		"context", opts.Context)

	withoutFences := removeCodeFences(trimmed)
	if withoutFences != trimmed {
		if result, err := tryDirectParse[T](withoutFences); err == nil {
			return ParseResult[T]{Success: true, Data: result, OriginalText: text}
		}
	}

	cleaned := cleanupJSON(withoutFences)
	if result, err := tryDirectParse[T](cleaned); err == nil {
		return ParseResult[T]{Success: true, Data: result, OriginalText: text}
	}

	if extracted := extractJSON(cleaned); extracted != "" {
		if result, err := tryDirectParse[T](extracted); err == nil {
			return ParseResult[T]{Success: true, Data: result, OriginalText: text}
		}
	}

	// Report the direct-decode error; it is the most specific
	return createError[T]("all JSON parsing strategies failed: "+err.Error(), text, opts.Context)
}

func tryDirectParse[T any](text string) (T, error) {
	var result T
	err := json.Unmarshal([]byte(text), &result)
	return result, err
}

// removeCodeFences strips ```json fences, whether they wrap the whole text or
// sit in the middle of it.
func removeCodeFences(text string) string {
	cleaned := codeFenceStartRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		if m := codeFenceAnyRegex.FindStringSubmatch(text); m != nil {
			cleaned = m[1]
		}
	}

	if strings.HasPrefix(cleaned, "`") && strings.HasSuffix(cleaned, "`") {
		cleaned = strings.TrimPrefix(cleaned, "`")
		cleaned = strings.TrimSuffix(cleaned, "`")
	}

	return strings.TrimSpace(cleaned)
}

// cleanupJSON fixes the JSON mistakes models make most often.
//
// Single quotes are left alone: converting them breaks valid strings that
// contain apostrophes. Only whole-line // comments are removed so that URLs
// inside strings survive.
func cleanupJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")
	cleaned = unquotedKeyRegex.ReplaceAllString(cleaned, `$1"$2":`)
	cleaned = singleLineCommentRegex.ReplaceAllString(cleaned, "")
	cleaned = multiLineCommentRegex.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// extractJSON returns the outermost object in mixed content, or "".
func extractJSON(text string) string {
	return objectRegex.FindString(text)
}

func createError[T any](message, text, context string) ParseResult[T] {
	var zero T
	if context != "" {
		message = context + ": " + message
	}
	return ParseResult[T]{
		Success:      false,
		Data:         zero,
		Error:        message,
		OriginalText: text,
	}
}

// truncate shortens s to at most maxLen bytes without splitting a UTF-8
// sequence, which matters for Chinese model output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	for i := 0; i < utf8.UTFMax && len(cut) > 0; i++ {
		if utf8.ValidString(cut) {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
