package normalize

import "testing"

func TestEmail(t *testing.T) {
	cases := map[string]string{
		"pedro.penduko@school.edu":  "pedro.penduko@school.edu",
		"  Maria.Clara@School.EDU ": "maria.clara@school.edu",
		"\tJOSE@RIZAL.PH\n":         "jose@rizal.ph",
		"":                          "",
	}
	for in, want := range cases {
		if got := Email(in); got != want {
			t.Errorf("Email(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestName(t *testing.T) {
	cases := map[string]string{
		"Maria   Clara\tde los Santos": "Maria Clara de los Santos",
		"  Andres Bonifacio ":          "Andres Bonifacio",
		"GABRIELA SILANG":              "GABRIELA SILANG",
		" \t ":                         "",
	}
	for in, want := range cases {
		if got := Name(in); got != want {
			t.Errorf("Name(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilters(t *testing.T) {
	if got := Status(" Approved "); got != "approved" {
		t.Errorf("Status = %q", got)
	}
	if got := QueryParam("  Dela Cruz "); got != "Dela Cruz" {
		t.Errorf("QueryParam = %q", got)
	}
	for _, in := range []string{"all", "ALL", " All "} {
		if got := ID(in); got != "" {
			t.Errorf("ID(%q) = %q, want empty", in, got)
		}
	}
	if got := ID(" 65f0c1d2e3a4b5c6d7e8f901 "); got != "65f0c1d2e3a4b5c6d7e8f901" {
		t.Errorf("ID = %q", got)
	}
}
