package bilingual

import (
	"golang.org/x/text/language"
)

// Language constants for the two site languages.
const (
	LangHebrew  = "he"
	LangEnglish = "en"
)

// DefaultLang is used when a visitor expresses no preference.
const DefaultLang = LangHebrew

// Text holds the Hebrew and English variants of a string field.
// Either side may be empty; a zero Text resolves to "".
type Text struct {
	He string `json:"he"`
	En string `json:"en"`
}

// IsZero returns true if both variants are empty.
// INVARIANT: Text fields are not mutated
func (t Text) IsZero() bool {
	return t.He == "" && t.En == ""
}

// In returns the variant for the requested language.
// PRE: lang is LangHebrew or LangEnglish (anything else falls through to fallback)
// POST: Returns the requested variant if non-empty, else English, else Hebrew, else ""
func (t Text) In(lang string) string {
	if lang == LangHebrew && t.He != "" {
		return t.He
	}
	if lang == LangEnglish && t.En != "" {
		return t.En
	}
	// English is the universal fallback regardless of the requested language.
	if t.En != "" {
		return t.En
	}
	return t.He
}

// Resolve returns the display string for a possibly-absent Text.
// PRE: none — t may be nil
// POST: Never returns an error, never panics, result may be ""
func Resolve(t *Text, lang string) string {
	if t == nil {
		return ""
	}
	return t.In(lang)
}

// supported holds the language tags the site serves, default first.
var supported = []language.Tag{
	language.Hebrew,
	language.English,
}

var matcher = language.NewMatcher(supported)

// ParseLang maps an arbitrary language string ("he", "en-US", "he-IL", ...)
// to one of the two site languages.
// POST: Returns LangHebrew or LangEnglish and true, or ("", false) on no match
func ParseLang(value string) (string, bool) {
	tag, err := language.Parse(value)
	if err != nil {
		return "", false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "", false
	}
	if supported[idx] == language.English {
		return LangEnglish, true
	}
	return LangHebrew, true
}

// MatchAccept resolves an Accept-Language header to a site language.
// POST: Always returns LangHebrew or LangEnglish (DefaultLang when header is empty or unparseable)
func MatchAccept(header string) string {
	if header == "" {
		return DefaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	if supported[idx] == language.English {
		return LangEnglish
	}
	return LangHebrew
}
