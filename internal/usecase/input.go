package usecase

import (
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
)

// SanitizeText trims, HTML-escapes and caps free-form user input before
// it reaches storage or another chat. The cap never splits a rune.
func SanitizeText(s string, max int) string {
	s = strings.TrimSpace(html.EscapeString(s))
	if max > 0 && len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

// ParsePrice accepts a positive integer amount in the smallest
// currency unit.
func ParsePrice(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, domain.ErrValidation
	}
	return n, nil
}

// ParseDiscount accepts an integer percentage in [0,100].
func ParseDiscount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 100 {
		return 0, domain.ErrValidation
	}
	return n, nil
}

// ParseStock accepts a non-negative integer quantity.
func ParseStock(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, domain.ErrValidation
	}
	return n, nil
}

// ValidateTitle checks the length of the raw trimmed text in
// characters before escaping: entity expansion must not let a short
// title through, and a multi-byte rune counts as one character.
func ValidateTitle(s string) (string, error) {
	raw := strings.TrimSpace(s)
	if utf8.RuneCountInString(raw) < model.MinTitleLen {
		return "", domain.ErrValidation
	}
	return SanitizeText(raw, model.MaxTitleLen), nil
}
