package logs

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"github.com/charliek/woconsole/internal/domain"
)

// c1CSI is the single-character control sequence introducer
const c1CSI = 0x9b

// Classify returns the display category for a raw line.
// "error" wins over "warning"; matching is case-insensitive.
func Classify(line string) domain.Category {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"):
		return domain.CategoryError
	case strings.Contains(lower, "warning"):
		return domain.CategoryWarning
	default:
		return domain.CategoryNormal
	}
}

// Clean removes terminal escape sequences for plain-text rendering
func Clean(line string) string {
	// U+009B encodes as C2 9B, so one byte scan covers both CSI forms
	if strings.IndexByte(line, 0x1b) < 0 && strings.IndexByte(line, c1CSI) < 0 {
		return line
	}
	return ansi.Strip(stripC1CSI(line))
}

// stripC1CSI removes control sequences introduced by the 8-bit CSI, written
// either as the raw byte 0x9B or as U+009B. ansi.Strip only understands the
// ESC-introduced forms. A 0x9B byte that continues a valid UTF-8 character
// is left alone.
func stripC1CSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		isCSI := r == c1CSI || (r == utf8.RuneError && size == 1 && s[i] == c1CSI)
		if !isCSI {
			b.WriteString(s[i : i+size])
			i += size
			continue
		}

		j := i + size
		for j < len(s) && s[j] >= 0x30 && s[j] <= 0x3f {
			j++
		}
		for j < len(s) && s[j] >= 0x20 && s[j] <= 0x2f {
			j++
		}
		if j < len(s) && s[j] >= 0x40 && s[j] <= 0x7e {
			j++
		}
		i = j
	}
	return b.String()
}

// NewLine classifies the raw text, then cleans it for display.
// Classification always looks at the raw text so cleaning can never
// change the category.
func NewLine(source, raw string, at time.Time) domain.LogLine {
	return domain.LogLine{
		Time:     at,
		Source:   source,
		Message:  Clean(raw),
		Category: Classify(raw),
		Raw:      raw,
	}
}
