package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := NewFingerprint("package main\n\nfunc main() {}\n")
	b := NewFingerprint("package main\n\nfunc main() {}\n")
	assert.Equal(t, a, b)
	assert.Len(t, a.String(), 64)
}

func TestFingerprintNormalization(t *testing.T) {
	base := NewFingerprint("line one\nline two\n")

	tests := []struct {
		name    string
		content string
	}{
		{"crlf line endings", "line one\r\nline two\r\n"},
		{"bare cr line endings", "line one\rline two\r"},
		{"utf8 bom", "\uFEFFline one\nline two\n"},
		{"trailing whitespace per line", "line one  \nline two\t\n"},
		{"missing final newline", "line one\nline two"},
		{"extra final newlines", "line one\nline two\n\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, base, NewFingerprint(tt.content))
		})
	}
}

func TestFingerprintDistinguishesContent(t *testing.T) {
	assert.NotEqual(t, NewFingerprint("alpha"), NewFingerprint("beta"))
	// Leading whitespace is significant (indentation).
	assert.NotEqual(t, NewFingerprint("  indented"), NewFingerprint("indented"))
}

func TestFingerprintEmpty(t *testing.T) {
	assert.Equal(t, NewFingerprint(""), NewFingerprint("\n\n"))
	assert.Equal(t, NewFingerprint(""), NewFingerprint("\r\n"))
}

func TestDetect(t *testing.T) {
	content := "some content\n"
	stored := NewFingerprint(content)

	assert.Equal(t, ChangeNew, Detect("", content))
	assert.Equal(t, ChangeUnchanged, Detect(stored, content))
	assert.Equal(t, ChangeUnchanged, Detect(stored, "some content\r\n"))
	assert.Equal(t, ChangeModified, Detect(stored, "different content\n"))
}
