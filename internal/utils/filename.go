package utils

import (
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeTitle turns a book title into a safe filename stem for the cover
// artifact. Path separators and traversal sequences are stripped so the
// client-supplied title can never escape the uploads directory.
func SanitizeTitle(title string) string {
	// Remove invalid filename characters (including / and \)
	title = invalidFilenameChars.ReplaceAllString(title, "")

	// Replace newlines/tabs with spaces
	title = whitespaceChars.ReplaceAllString(title, " ")

	// Drop traversal sequences left over after separator removal
	title = strings.ReplaceAll(title, "..", "")

	// Collapse multiple spaces
	title = multipleSpaces.ReplaceAllString(title, " ")

	// Trim whitespace
	title = strings.TrimSpace(title)

	// Spaces to underscores, matching the uploaded-artifact naming scheme
	title = strings.ReplaceAll(title, " ", "_")

	// Limit length (most filesystems support 255, but leave room for extension)
	if len(title) > 200 {
		title = strings.Trim(title[:200], "_")
	}

	// Ensure it's not empty
	if title == "" {
		title = "untitled"
	}

	return title
}
