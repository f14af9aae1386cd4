package project

import "strings"

// ContentClass labels a unit of content for chunking and retrieval.
type ContentClass string

// ContentClass values. Every fetched unit maps to exactly one class: code
// when the extension matches a known language, ramble for the single
// user-authored narrative per project, informational for everything else.
const (
	ClassCode          ContentClass = "code"
	ClassInformational ContentClass = "informational"
	ClassRamble        ContentClass = "ramble"
)

// IsValid reports whether the class is one of the known values.
func (c ContentClass) IsValid() bool {
	return c == ClassCode || c == ClassInformational || c == ClassRamble
}

// String returns the class label.
func (c ContentClass) String() string { return string(c) }

// allowedExtensions is the fetch-time allow-list. Files whose extension is
// not listed are never fetched or stored.
var allowedExtensions = map[string]struct{}{
	"py": {}, "js": {}, "ts": {}, "jsx": {}, "tsx": {},
	"html": {}, "css": {}, "scss": {}, "json": {},
	"md": {}, "txt": {}, "yml": {}, "yaml": {}, "xml": {}, "sql": {},
	"sh": {}, "bash": {}, "zsh": {},
	"c": {}, "cpp": {}, "h": {}, "hpp": {}, "cs": {}, "java": {}, "kt": {},
	"rs": {}, "go": {}, "rb": {}, "php": {}, "swift": {}, "dart": {},
	"vue": {}, "svelte": {}, "astro": {},
}

// excludedDirs are path prefixes skipped during fetching: dependency
// caches, build output, and editor state.
var excludedDirs = []string{
	"node_modules/", "dist/", "build/", "target/", ".git/", ".venv/",
	"__pycache__/", ".mypy_cache/", ".pytest_cache/", ".next/",
	".idea/", ".vscode/", "vendor/",
}

// languageByExtension maps file extensions to the language used for
// syntax-aware chunking.
var languageByExtension = map[string]string{
	"py": "python", "js": "javascript", "ts": "typescript",
	"jsx": "javascript", "tsx": "typescript",
	"java": "java", "c": "c", "cpp": "cpp", "h": "cpp", "hpp": "cpp",
	"cs": "csharp",
	"go": "go", "rb": "ruby", "php": "php", "rs": "rust",
	"swift": "swift", "kt": "kotlin", "dart": "dart",
	"sh": "bash", "bash": "bash",
}

// AllowedPath reports whether a repository path passes the fetch filters:
// not under an excluded directory and carrying an allow-listed extension.
func AllowedPath(path string) bool {
	for _, dir := range excludedDirs {
		if strings.HasPrefix(path, dir) || strings.Contains(path, "/"+dir) {
			return false
		}
	}
	_, ok := allowedExtensions[extensionOf(path)]
	return ok
}

// LanguageForPath returns the chunking language for a path, or "" when the
// extension has no syntax-aware support.
func LanguageForPath(path string) string {
	return languageByExtension[extensionOf(path)]
}

// Classify maps a repository path to its content class. Paths whose
// extension names a known language are code; everything else that passed
// the allow-list (markdown, configs, docs) is informational. Rambles are
// never classified here: they are user-submitted, not fetched.
func Classify(path string) ContentClass {
	if _, ok := languageByExtension[extensionOf(path)]; ok {
		return ClassCode
	}
	return ClassInformational
}
