package encoder

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTailBufferKeepsLastBytesAcrossWrites(t *testing.T) {
	tb := newTailBuffer(8)
	_, _ = tb.Write([]byte("frame=1\n"))
	_, _ = tb.Write([]byte("error!"))
	if got := tb.String(); got != "1\nerror!" {
		t.Fatalf("String() = %q", got)
	}
}

// TestTailBufferDropsSplitRune verifies the cut never leaves half a
// multi-byte character at the front.
func TestTailBufferDropsSplitRune(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		// "错" is three bytes; a 12 byte tail starts on its last byte.
		{"one continuation byte", "错误: 无效", 12, "误: 无效"},
		{"two continuation bytes", "错误: 无效", 13, "误: 无效"},
		{"cut on rune boundary", "错误: 无效", 8, ": 无效"},
		{"ascii", "exit code 1", 4, "de 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := newTailBuffer(tt.limit)
			_, _ = tb.Write([]byte(tt.input))
			got := tb.String()
			if got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("String() = %q is not valid UTF-8", got)
			}
		})
	}

	tb := newTailBuffer(500)
	_, _ = tb.Write([]byte(strings.Repeat("无", 400)))
	if got := tb.String(); !utf8.ValidString(got) || len(got) > 500 {
		t.Fatalf("len = %d valid = %v", len(got), utf8.ValidString(got))
	}
}
