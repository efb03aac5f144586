// Package hexcodec decodes text dumps of comma-separated hex bytes, such as
// "0x7b, 0x22, 0x61", back into UTF-8 text.
package hexcodec

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TokenError reports a token that is not a hex byte.
type TokenError struct {
	Index int
	Token string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token %d (%q): %v", e.Index, e.Token, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// ErrInvalidUTF8 is returned when the decoded bytes are not UTF-8 text.
var ErrInvalidUTF8 = errors.New("decoded bytes are not valid UTF-8")

// Decode parses comma-separated hex tokens. Newlines count as spaces,
// surrounding whitespace and empty tokens are ignored, and the 0x prefix
// is optional.
func Decode(dump string) (string, error) {
	dump = strings.ReplaceAll(dump, "\n", " ")

	var buf []byte
	for i, tok := range strings.Split(dump, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		digits := tok
		if len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
			digits = digits[2:]
		}
		b, err := strconv.ParseUint(digits, 16, 8)
		if err != nil {
			return "", &TokenError{Index: i, Token: tok, Err: err}
		}
		buf = append(buf, byte(b))
	}

	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	return string(buf), nil
}

// DecodeFile decodes the dump in input and writes the text to output.
// It returns the number of bytes written.
func DecodeFile(input, output string) (int, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", input, err)
	}
	text, err := Decode(string(data))
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", input, err)
	}
	if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", output, err)
	}
	return len(text), nil
}
