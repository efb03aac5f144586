package dispatch

import (
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxMessageSize bounds failure messages sent to clients (4KB).
	DefaultMaxMessageSize = 4096
	// EnvMaxMessageSize is the environment variable to override the default
	EnvMaxMessageSize = "TOOLSERVE_MAX_MESSAGE_SIZE"
)

const truncationMarker = "…"

// Sanitize cleans a client-facing message: invalid UTF-8 is replaced,
// control characters other than newline, tab and carriage return are
// stripped, and the result is cut to at most limit bytes on a rune boundary.
// A non-positive limit uses the configured default.
func Sanitize(msg string, limit int) string {
	if limit <= 0 {
		limit = maxMessageSize()
	}

	if !utf8.ValidString(msg) {
		msg = strings.ToValidUTF8(msg, "�")
	}

	// Fast path: if no control chars, skip the rebuild.
	clean := true
	for _, r := range msg {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if !clean {
		var b strings.Builder
		b.Grow(len(msg))
		for _, r := range msg {
			if !unicode.IsControl(r) || isSafeControl(r) {
				b.WriteRune(r)
			}
		}
		msg = b.String()
	}

	if len(msg) <= limit {
		return msg
	}
	marker := truncationMarker
	if limit < len(marker) {
		marker = ""
	}
	cut := limit - len(marker)
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + marker
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxMessageSize() int {
	if val := os.Getenv(EnvMaxMessageSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxMessageSize
}
