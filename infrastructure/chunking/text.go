package chunking

import "strings"

// paragraphChunks splits text on blank lines, merges runs of undersized
// paragraphs up to the limit, and window-splits paragraphs that exceed it.
func paragraphChunks(content string, maxChars, minChars int) []string {
	var paragraphs []string
	for _, p := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var pending string

	flush := func() {
		if pending != "" {
			chunks = append(chunks, pending)
			pending = ""
		}
	}

	for _, para := range paragraphs {
		if len(para) > maxChars {
			flush()
			chunks = append(chunks, fixedWindow(para, maxChars)...)
			continue
		}

		switch {
		case pending == "":
			pending = para
		case len(pending)+2+len(para) <= maxChars && len(pending) < minChars:
			pending = pending + "\n\n" + para
		default:
			flush()
			pending = para
		}
	}
	flush()

	return chunks
}

// fixedWindow splits content into consecutive rune windows of at most
// maxChars. The last window may be shorter.
func fixedWindow(content string, maxChars int) []string {
	if content == "" {
		return nil
	}
	if maxChars <= 0 {
		return []string{content}
	}

	runes := []rune(content)
	var chunks []string
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
