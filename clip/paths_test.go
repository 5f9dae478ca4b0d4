package clip

import (
	"path/filepath"
	"testing"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Left turn", "Left turn"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"   ", "clip"},
		{"trailing dot.", "trailing dot"},
		{"tab\tinside", "tab_inside"},
	}
	for _, tt := range tests {
		if got := SanitizeLabel(tt.in); got != tt.want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPathSetUnique(t *testing.T) {
	dir := t.TempDir()
	set := NewPathSet()
	first := set.Unique(OutputPath(dir, "Brake"))
	second := set.Unique(OutputPath(dir, "brake"))
	third := set.Unique(OutputPath(dir, "Brake"))

	if first != filepath.Join(dir, "Brake.mp4") {
		t.Fatalf("first = %q", first)
	}
	if second != filepath.Join(dir, "brake (2).mp4") {
		t.Fatalf("second = %q", second)
	}
	if third != filepath.Join(dir, "Brake (3).mp4") {
		t.Fatalf("third = %q", third)
	}
}

func TestPathSetReserve(t *testing.T) {
	set := NewPathSet()
	set.Reserve("/out/Kick.mp4")
	if got := set.Unique("/out/kick.mp4"); got != "/out/kick (2).mp4" {
		t.Fatalf("Unique() = %q, want /out/kick (2).mp4", got)
	}
}
