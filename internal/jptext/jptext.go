// Package jptext canonicalizes Japanese regulatory text: byte decoding with
// regional-encoding fallbacks, NFKC width folding, and whitespace trimming.
package jptext

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackEncodings is the fixed decode priority tried after the caller's
// hint. Order matters: PMDA pages are overwhelmingly cp932.
var fallbackEncodings = []string{"cp932", "euc-jp", "utf-8", "shift_jis"}

// Normalize applies NFKC compatibility normalization (folding half-width
// katakana and full-width ASCII to their canonical forms) and trims
// surrounding whitespace. Nil stays nil; an empty string stays empty.
func Normalize(s *string) *string {
	if s == nil {
		return nil
	}
	out := NormalizeString(*s)
	return &out
}

// NormalizeString is Normalize for callers that already hold a string.
func NormalizeString(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Decode decodes raw bytes trying the hint encoding first, then the fixed
// fallback list, and normalizes the first successful result. It returns nil
// when no candidate encoding decodes cleanly; that is a quarantine signal,
// not an error. Nil input stays nil.
func Decode(b []byte, hint string) *string {
	if b == nil {
		return nil
	}

	tried := map[string]bool{}
	candidates := append([]string{hint}, fallbackEncodings...)
	for _, name := range candidates {
		canonical := canonicalName(name)
		if canonical == "" || tried[canonical] {
			continue
		}
		tried[canonical] = true

		decoded, ok := decodeAs(b, canonical)
		if !ok {
			continue
		}
		out := NormalizeString(decoded)
		return &out
	}

	return nil
}

func canonicalName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cp932", "shift_jis", "shift-jis", "sjis", "windows-31j", "ms932":
		return "cp932"
	case "euc-jp", "eucjp":
		return "euc-jp"
	case "utf-8", "utf8", "ascii", "us-ascii":
		return "utf-8"
	default:
		return ""
	}
}

func decodeAs(b []byte, canonical string) (string, bool) {
	var enc encoding.Encoding
	switch canonical {
	case "cp932":
		enc = japanese.ShiftJIS
	case "euc-jp":
		enc = japanese.EUCJP
	case "utf-8":
		if !utf8.Valid(b) {
			return "", false
		}
		return string(b), true
	default:
		return "", false
	}

	decoded, _, err := transform.String(enc.NewDecoder(), string(b))
	if err != nil {
		return "", false
	}
	// The x/text decoders substitute U+FFFD instead of failing on malformed
	// input, so a replacement rune in the output marks a bad decode.
	if strings.ContainsRune(decoded, utf8.RuneError) {
		return "", false
	}
	return decoded, true
}
