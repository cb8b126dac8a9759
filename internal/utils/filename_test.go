package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain title", "Dune", "Dune"},
		{"spaces become underscores", "The Left Hand of Darkness", "The_Left_Hand_of_Darkness"},
		{"slashes removed", "Fahrenheit/451", "Fahrenheit451"},
		{"backslashes removed", `Moby\Dick`, "MobyDick"},
		{"traversal stripped", "../../etc/passwd", "etcpasswd"},
		{"colons and quotes removed", `Dune: "Messiah"`, "Dune_Messiah"},
		{"newlines normalized", "War\nand\tPeace", "War_and_Peace"},
		{"multiple spaces collapse", "A    Wizard  of Earthsea", "A_Wizard_of_Earthsea"},
		{"empty becomes untitled", "", "untitled"},
		{"only invalid chars becomes untitled", `\/:*?"<>|`, "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeTitle(tt.input))
		})
	}
}

func TestSanitizeTitle_LongTitleTruncated(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "verylongword "
	}

	result := SanitizeTitle(long)

	assert.LessOrEqual(t, len(result), 200)
	assert.NotEmpty(t, result)
}
