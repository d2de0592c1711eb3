package services

import "strings"

var extensions = []struct {
	marker string
	ext    string
}{
	{"png", ".png"},
	{"gif", ".gif"},
	{"bmp", ".bmp"},
	{"webp", ".webp"},
}

// FileExtension picks the object extension from a Content-Type header by
// case-sensitive substring match, checked in a fixed order. Anything
// unrecognised, including an empty type, maps to ".jpg".
func FileExtension(contentType string) string {
	for _, e := range extensions {
		if strings.Contains(contentType, e.marker) {
			return e.ext
		}
	}
	return ".jpg"
}
