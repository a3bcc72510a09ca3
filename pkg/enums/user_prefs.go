package enums

import "fmt"

// Language is the UI language preference stored on a user.
type Language string

const (
	LanguageEnglish Language = "enGB"
	LanguageGerman  Language = "deDE"
)

// DefaultLanguage is assigned to new users without an explicit preference.
const DefaultLanguage = LanguageEnglish

// Theme is the UI theme preference stored on a user.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme is assigned to new users without an explicit preference.
const DefaultTheme = ThemeDark

// IsValid reports whether the value is a known Language.
func (l Language) IsValid() bool {
	return l == LanguageEnglish || l == LanguageGerman
}

// ParseLanguage converts raw input into a Language.
func ParseLanguage(value string) (Language, error) {
	lang := Language(value)
	if !lang.IsValid() {
		return "", fmt.Errorf("invalid language %q", value)
	}
	return lang, nil
}

// IsValid reports whether the value is a known Theme.
func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

// ParseTheme converts raw input into a Theme.
func ParseTheme(value string) (Theme, error) {
	theme := Theme(value)
	if !theme.IsValid() {
		return "", fmt.Errorf("invalid theme %q", value)
	}
	return theme, nil
}
