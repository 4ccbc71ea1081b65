package utils

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var krwPrinter = message.NewPrinter(language.Korean)

// FormatPrice renders an integer won amount the way listings display it: 12,000원
func FormatPrice(price int64) string {
	return krwPrinter.Sprintf("%d", price) + "원"
}

// ParsePrice strips grouping separators and the currency suffix from user input.
func ParsePrice(input string) (int64, error) {
	cleaned := strings.TrimSpace(input)
	cleaned = strings.TrimSuffix(cleaned, "원")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	return strconv.ParseInt(cleaned, 10, 64)
}
