// internal/util/util_test.go
package util

import (
	"testing"
)

func TestTruncateToWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "no truncation", in: "hello", width: 10, want: "hello"},
		{name: "ascii truncation", in: "helloworld", width: 6, want: "hello…"},
		{name: "wide truncation", in: "元兄充兆先光", width: 7, want: "元兄充…"},
		{name: "per line", in: "line1\nSecondLine", width: 6, want: "line1\nSecon…"},
		{name: "non-positive width no-op", in: "no cut", width: 0, want: "no cut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateToWidth(tt.in, tt.width); got != tt.want {
				t.Fatalf("TruncateToWidth(%q,%d)=%q want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestPadAndCellWidth(t *testing.T) {
	t.Parallel()

	if got := CellWidth("a元b"); got != 4 {
		t.Fatalf("CellWidth=%d want 4", got)
	}
	got := PadToWidth("元", 4)
	if got != "元  " {
		t.Fatalf("PadToWidth=%q want %q", got, "元  ")
	}
	if CellWidth(got) != 4 {
		t.Fatalf("padded width=%d want 4", CellWidth(got))
	}
}
