package bilingual

import "testing"

// TestResolve_FallbackOrder verifies requested language, then English, then Hebrew, then "".
func TestResolve_FallbackOrder(t *testing.T) {
	cases := []struct {
		name string
		text *Text
		lang string
		want string
	}{
		{"requested hebrew present", &Text{He: "שלום", En: "Hello"}, LangHebrew, "שלום"},
		{"requested english present", &Text{He: "שלום", En: "Hello"}, LangEnglish, "Hello"},
		{"hebrew empty falls back to english", &Text{He: "", En: "Hi"}, LangHebrew, "Hi"},
		{"english empty falls back to hebrew", &Text{He: "שלום", En: ""}, LangEnglish, "שלום"},
		{"both empty", &Text{}, LangHebrew, ""},
		{"nil text", nil, LangEnglish, ""},
		{"unknown lang uses english fallback", &Text{He: "שלום", En: "Hello"}, "fr", "Hello"},
		{"unknown lang with only hebrew", &Text{He: "שלום"}, "fr", "שלום"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.text, tc.lang); got != tc.want {
				t.Errorf("Resolve(%+v, %q) = %q, want %q", tc.text, tc.lang, got, tc.want)
			}
		})
	}
}

// TestResolve_WhitespaceIsPresent verifies whitespace-only strings are not treated as missing.
func TestResolve_WhitespaceIsPresent(t *testing.T) {
	got := Resolve(&Text{He: " ", En: "Hello"}, LangHebrew)
	if got != " " {
		t.Errorf("whitespace Hebrew should resolve as-is, got %q", got)
	}
}

func TestIsZero(t *testing.T) {
	if !(Text{}).IsZero() {
		t.Error("empty Text should be zero")
	}
	if (Text{He: "x"}).IsZero() {
		t.Error("Text with Hebrew should not be zero")
	}
}

func TestParseLang(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"he", LangHebrew, true},
		{"he-IL", LangHebrew, true},
		{"en", LangEnglish, true},
		{"en-US", LangEnglish, true},
		{"iw", LangHebrew, true}, // legacy Hebrew tag
		{"???", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseLang(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseLang(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestMatchAccept(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", DefaultLang},
		{"he-IL,he;q=0.9,en;q=0.8", LangHebrew},
		{"en-US,en;q=0.9", LangEnglish},
		{"fr-FR,fr;q=0.9", DefaultLang},
		{"garbage;;;", DefaultLang},
	}
	for _, tc := range cases {
		if got := MatchAccept(tc.header); got != tc.want {
			t.Errorf("MatchAccept(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
