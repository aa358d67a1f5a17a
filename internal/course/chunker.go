package course

import (
	"regexp"
	"strings"
)

// sentenceEnd splits text on sentence boundaries: a terminator followed by
// whitespace. Abbreviation handling is deliberately minimal; transcripts
// are spoken text and rarely contain them.
var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// splitSentences splits text into trimmed sentences.
// Text without any terminator comes back as a single sentence.
func splitSentences(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	marked := sentenceEnd.ReplaceAllString(normalized, "$1\x00")
	parts := strings.Split(marked, "\x00")

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// chunkText splits text into sentence-aware windows of at most chunkSize
// characters, with roughly overlap characters of trailing context repeated
// at the start of the next window. A single sentence longer than chunkSize
// becomes its own oversized chunk rather than being split mid-sentence.
func chunkText(text string, chunkSize, overlap int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		size := 0
		end := i
		for end < len(sentences) {
			add := len(sentences[end])
			if end > i {
				add++ // joining space
			}
			if size+add > chunkSize && end > i {
				break
			}
			size += add
			end++
		}

		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}

		// Walk back whole sentences until ~overlap characters are covered.
		next := end
		covered := 0
		for next > i+1 && covered < overlap {
			next--
			covered += len(sentences[next]) + 1
		}
		i = next
	}

	return chunks
}
