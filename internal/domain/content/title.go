package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	udemyPrefix    = regexp.MustCompile(`(?i)^Udemy\s*-\s*`)
	titleSeparator = strings.NewReplacer("_", " ", "-", " ", ",", " ")
)

// FormatTitle turns a file or folder name into a display title:
// "Udemy - go_concurrency-basics" becomes "Go Concurrency Basics".
func FormatTitle(name string) string {
	clean := udemyPrefix.ReplaceAllString(name, "")
	clean = titleSeparator.Replace(clean)

	words := strings.Split(clean, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.TrimSpace(strings.Join(words, " "))
}
