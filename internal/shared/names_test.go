package shared_test

import (
	"testing"

	"restate_api/internal/shared"
)

func TestInitials(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"  ", ""},
		{"ada", "A"},
		{"Ada Lovelace", "AL"},
		{"Jean-Luc Marie Picard", "JP"},
	}
	for _, c := range cases {
		if got := shared.Initials(c.in); got != c.want {
			t.Errorf("Initials(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"ada", "ada"},
		{"Ada Byron Lovelace", "Ada Lovelace"},
	}
	for _, c := range cases {
		if got := shared.FormatName(c.in); got != c.want {
			t.Errorf("FormatName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
