// Package i18n holds the dashboard languages and their message catalog.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Language is a dashboard display language.
type Language string

const (
	English Language = "en"
	Korean  Language = "ko"

	Default = English
)

// Languages lists the supported languages in toggle order.
var Languages = []Language{English, Korean}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Korean})

// Parse parses a language code such as "en", "ko" or "ko-KR".
func Parse(s string) (Language, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", s, err)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return English, nil
	case "ko":
		return Korean, nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

// Match picks the best supported language for an Accept-Language header
// value. It falls back to Default.
func Match(acceptLanguage string) Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	return Languages[idx]
}

// Tag returns the BCP 47 tag of l.
func (l Language) Tag() language.Tag {
	if l == Korean {
		return language.Korean
	}
	return language.English
}

// Label is how the language names itself in the toggle.
func (l Language) Label() string {
	if l == Korean {
		return "한국어"
	}
	return "EN"
}

// Printer returns a printer that formats dashboard messages in l.
func (l Language) Printer() *message.Printer {
	return message.NewPrinter(l.Tag(), message.Catalog(messages))
}

// Set implements pflag.Value.
func (l *Language) Set(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l *Language) String() string {
	return string(*l)
}

func (l *Language) Type() string {
	return "language"
}
