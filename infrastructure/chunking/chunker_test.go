package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitae-dev/vitae/internal/config"
)

func newTestChunker() Chunker {
	return NewChunker(config.NewChunkConfig().WithChunkMaxChars(2000).WithChunkMinChars(200))
}

func TestChunkCodeGoDeclarations(t *testing.T) {
	source := `package main

import "fmt"

func hello() {
	fmt.Println("hello")
}

func world() {
	fmt.Println("world")
}

type Greeter struct{}

func (g Greeter) Greet() string {
	return "hi"
}
`
	chunks := newTestChunker().ChunkCode(source, "go")
	require.Len(t, chunks, 3)
	assert.Contains(t, chunks[0], "func hello()")
	assert.Contains(t, chunks[1], "func world()")
	assert.Contains(t, chunks[2], "func (g Greeter) Greet()")
}

func TestChunkCodePythonDeclarations(t *testing.T) {
	source := `import os

def first():
    return 1

class Thing:
    def method(self):
        return 2

def second():
    return 3
`
	chunks := newTestChunker().ChunkCode(source, "python")
	require.Len(t, chunks, 3)
	assert.Contains(t, chunks[0], "def first()")
	assert.Contains(t, chunks[1], "class Thing:")
	assert.Contains(t, chunks[2], "def second()")
}

func TestChunkCodeUnsupportedLanguageFallsBack(t *testing.T) {
	content := strings.Repeat("x", 4500)
	chunks := newTestChunker().ChunkCode(content, "cobol")
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2000)
	assert.Len(t, chunks[1], 2000)
	assert.Len(t, chunks[2], 500)
}

func TestChunkCodeNoDeclarationsFallsBack(t *testing.T) {
	// Valid Go with no function or method declarations.
	source := "package main\n\nvar x = 1\n"
	chunks := newTestChunker().ChunkCode(source, "go")
	require.Len(t, chunks, 1)
	assert.Equal(t, source, chunks[0])
}

func TestChunkCodeOversizedDeclarationIsSplit(t *testing.T) {
	var b strings.Builder
	b.WriteString("package main\n\nfunc big() {\n")
	for i := 0; i < 200; i++ {
		b.WriteString("\t// padding line to inflate the declaration body\n")
	}
	b.WriteString("}\n")

	chunks := newTestChunker().ChunkCode(b.String(), "go")
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 2000)
	}
}

func TestChunkCodeEmpty(t *testing.T) {
	assert.Empty(t, newTestChunker().ChunkCode("", "go"))
}

func TestChunkTextParagraphs(t *testing.T) {
	long := strings.Repeat("a", 300)
	other := strings.Repeat("b", 300)
	text := long + "\n\n" + other
	chunks := newTestChunker().ChunkText(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, long, chunks[0])
	assert.Equal(t, other, chunks[1])
}

func TestChunkTextMergesUndersizedParagraphs(t *testing.T) {
	text := "Short one.\n\nShort two.\n\nShort three."
	chunks := newTestChunker().ChunkText(text)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "Short one.")
	assert.Contains(t, chunks[0], "Short three.")
}

func TestChunkTextSplitsOversizedParagraph(t *testing.T) {
	text := strings.Repeat("y", 5000)
	chunks := newTestChunker().ChunkText(text)
	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 2000)
	}
}

func TestChunkTextPreservesOrder(t *testing.T) {
	big := strings.Repeat("c", 1900)
	text := "intro\n\n" + big + "\n\noutro"
	chunks := newTestChunker().ChunkText(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Contains(t, chunks[0], "intro")
	assert.Contains(t, chunks[len(chunks)-1], "outro")
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Empty(t, newTestChunker().ChunkText(""))
	assert.Empty(t, newTestChunker().ChunkText("\n\n\n\n"))
}

func TestFixedWindowRuneBoundaries(t *testing.T) {
	content := strings.Repeat("é", 2500)
	chunks := fixedWindow(content, 2000)
	require.Len(t, chunks, 2)
	assert.Len(t, []rune(chunks[0]), 2000)
	assert.Len(t, []rune(chunks[1]), 500)
	assert.Equal(t, content, strings.Join(chunks, ""))
}
