// Package chunk splits chapter text into overlapping pieces sized for
// model context windows.
package chunk

import (
	"strings"

	"github.com/mkotula/retain/internal/chapter"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1024,
		ChunkOverlap: 200,
		MinChunk:     64,
	}
}

func (cfg Config) normalized() Config {
	d := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = d.ChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = d.ChunkOverlap
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = d.MinChunk
	}
	return cfg
}

// Chunk is one piece of chapter text ready for a model call.
type Chunk struct {
	Text         string
	Index        int // position within the book, counted across all chapters
	ChapterTitle string
	Tokens       int
}

// ChunkBook chunks every chapter in reading order. Chunk indexes run
// sequentially across the whole book.
func ChunkBook(chapters []chapter.Chapter, cfg Config) []Chunk {
	cfg = cfg.normalized()

	var chunks []Chunk
	index := 0
	for _, ch := range chapters {
		index = appendChapterChunks(ch, cfg, &chunks, index)
	}
	return chunks
}

// ChunkChapter chunks a single chapter, indexing from zero.
func ChunkChapter(ch chapter.Chapter, cfg Config) []Chunk {
	cfg = cfg.normalized()

	var chunks []Chunk
	appendChapterChunks(ch, cfg, &chunks, 0)
	return chunks
}

func appendChapterChunks(ch chapter.Chapter, cfg Config, chunks *[]Chunk, index int) int {
	text := strings.TrimSpace(ch.Content)
	if text == "" {
		return index
	}

	tokens := EstimateTokens(text)
	if tokens <= cfg.ChunkSize {
		if tokens >= cfg.MinChunk {
			*chunks = append(*chunks, Chunk{
				Text:         text,
				Index:        index,
				ChapterTitle: ch.Title,
				Tokens:       tokens,
			})
			index++
		}
		return index
	}

	for _, part := range splitText(text, cfg.ChunkSize, cfg.ChunkOverlap) {
		partTokens := EstimateTokens(part)
		if partTokens < cfg.MinChunk {
			continue
		}
		*chunks = append(*chunks, Chunk{
			Text:         part,
			Index:        index,
			ChapterTitle: ch.Title,
			Tokens:       partTokens,
		})
		index++
	}
	return index
}

// splitText breaks text into chunks of approximately targetTokens, with overlap.
func splitText(text string, targetTokens, overlapTokens int) []string {
	// Split by paragraphs first.
	paragraphs := splitByParagraphs(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)

		// If a single paragraph exceeds the target, split it further.
		if paraTokens > targetTokens {
			// Flush current buffer.
			if currentTokens > 0 {
				result = append(result, current.String())
				current.Reset()
				currentTokens = 0
			}
			// Split the large paragraph by sentences.
			subParts := splitBySentences(para, targetTokens, overlapTokens)
			result = append(result, subParts...)
			continue
		}

		// Would adding this paragraph exceed the target?
		if currentTokens+paraTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())

			// Start next chunk with overlap from end of current.
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based chunks.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	sentences := splitSentences(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	// Approximate: 1.33 tokens per word.
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
