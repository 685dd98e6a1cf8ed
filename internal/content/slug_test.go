package content

import "testing"

func TestDeriveSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"A", "a"},
		{"Hello World", "hello-world"},
		{"  Attention: The New Currency!  ", "attention-the-new-currency"},
		{"CTV & Display -- 2025 Report", "ctv-display-2025-report"},
		{"Café Crème", "caf-cr-me"},
		{"---", ""},
	}

	for _, tt := range tests {
		if got := DeriveSlug(tt.title); got != tt.want {
			t.Fatalf("DeriveSlug(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"a": true, "a-1": true, "b-1": true}
	isTaken := func(s string) bool { return taken[s] }

	if got := UniqueSlug("a", isTaken); got != "a-2" {
		t.Fatalf("UniqueSlug(a) = %q, want a-2", got)
	}
	if got := UniqueSlug("b", isTaken); got != "b" {
		t.Fatalf("UniqueSlug(b) = %q, want b", got)
	}
}
