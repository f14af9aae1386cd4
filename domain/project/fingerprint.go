package project

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint is a deterministic SHA-256 hash of normalized content, used
// to decide whether a file or ramble needs re-chunking and re-embedding.
type Fingerprint string

// ChangeKind is the change-detection verdict for one unit of content.
type ChangeKind string

// ChangeKind values.
const (
	ChangeNew       ChangeKind = "new"
	ChangeModified  ChangeKind = "modified"
	ChangeUnchanged ChangeKind = "unchanged"
)

// NewFingerprint hashes the normalized form of content. Normalization makes
// the hash insensitive to line-ending style, a UTF-8 BOM, trailing
// whitespace on each line, and the presence of a final newline, so checkout
// and transport artifacts do not force re-processing.
func NewFingerprint(content string) Fingerprint {
	sum := sha256.Sum256([]byte(normalize(content)))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool { return f == "" }

// String returns the hex digest.
func (f Fingerprint) String() string { return string(f) }

// Detect compares stored against the fingerprint of fresh content.
func Detect(stored Fingerprint, content string) ChangeKind {
	current := NewFingerprint(content)
	switch {
	case stored.IsZero():
		return ChangeNew
	case stored == current:
		return ChangeUnchanged
	default:
		return ChangeModified
	}
}

func normalize(content string) string {
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	normalized := strings.Join(lines, "\n")

	normalized = strings.TrimRight(normalized, "\n")
	if normalized == "" {
		return ""
	}
	return normalized + "\n"
}
