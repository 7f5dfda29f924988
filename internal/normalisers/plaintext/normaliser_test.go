package plaintext

import "testing"

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"already clean", "hello world", "hello world"},
		{"collapses spaces", "hello    world", "hello world"},
		{"collapses newlines", "line one\n\nline two", "line one line two"},
		{"collapses mixed runs", "a \t\n b\r\nc", "a b c"},
		{"trims edges", "  padded  ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalise(tt.in); got != tt.want {
				t.Errorf("Normalise(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
