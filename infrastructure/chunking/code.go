package chunking

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// grammar pairs a tree-sitter language with the top-level node types that
// mark chunk boundaries.
type grammar struct {
	language  *sitter.Language
	nodeTypes []string
}

// grammars maps chunking language names to their syntax support. Languages
// absent here (ruby, php, swift, kotlin, dart, bash) are chunked with the
// fixed window instead.
var grammars = map[string]grammar{
	"python": {
		language:  python.GetLanguage(),
		nodeTypes: []string{"function_definition", "class_definition"},
	},
	"javascript": {
		language:  javascript.GetLanguage(),
		nodeTypes: []string{"function_declaration", "class_declaration"},
	},
	"typescript": {
		language:  typescript.GetLanguage(),
		nodeTypes: []string{"function_declaration", "class_declaration"},
	},
	"java": {
		language:  java.GetLanguage(),
		nodeTypes: []string{"method_declaration", "class_declaration"},
	},
	"c": {
		language:  c.GetLanguage(),
		nodeTypes: []string{"function_definition"},
	},
	"cpp": {
		language:  cpp.GetLanguage(),
		nodeTypes: []string{"function_definition", "class_specifier"},
	},
	"go": {
		language:  golang.GetLanguage(),
		nodeTypes: []string{"function_declaration", "method_declaration"},
	},
	"rust": {
		language:  rust.GetLanguage(),
		nodeTypes: []string{"function_item", "struct_item", "enum_item", "impl_item"},
	},
	"csharp": {
		language:  csharp.GetLanguage(),
		nodeTypes: []string{"method_declaration", "class_declaration"},
	},
}

func languageFor(name string) (grammar, bool) {
	g, ok := grammars[strings.ToLower(name)]
	return g, ok
}

// declarationChunks parses source and returns the text of every top-level
// node whose type is a chunk boundary for the language.
func declarationChunks(content string, g grammar) ([]string, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(g.language)

	source := []byte(content)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	var chunks []string
	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		if node == nil {
			continue
		}
		if !isBoundary(node.Type(), g.nodeTypes) {
			continue
		}
		start, end := node.StartByte(), node.EndByte()
		if int(end) > len(source) || start >= end {
			continue
		}
		chunks = append(chunks, string(source[start:end]))
	}
	return chunks, nil
}

func isBoundary(nodeType string, boundaries []string) bool {
	for _, b := range boundaries {
		if nodeType == b {
			return true
		}
	}
	return false
}
