// ABOUTME: DocumentChunker splits extracted pages into overlapping, sentence-aligned chunks
// ABOUTME: Cleans slide/page noise first and drops pages that do not look like course material
package core

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/harper/edurag/internal/models"
)

const (
	// DefaultChunkSize is the target chunk size in words
	DefaultChunkSize = 300
	// DefaultChunkOverlap is the word budget for sentences carried into the next chunk
	DefaultChunkOverlap = 75
	// MinPageChars is the cleaned length below which a page yields nothing
	MinPageChars = 50
	// MinChunkChars is the length below which a chunk is discarded
	MinChunkChars = 100
	// ShortPageSentences is the sentence count at or below which a page becomes one chunk
	ShortPageSentences = 3
	// MaxOverlapSentences is the most sentences carried into the next chunk
	MaxOverlapSentences = 2
)

var (
	headerFooterRe = regexp.MustCompile(`(?im)^[ \t]*(header|footer)\b.*$`)
	pageMarkerRe   = regexp.MustCompile(`(?im)^[ \t]*(?:slide|page)[ \t]*\d+\b[ \t]*[:.\-]?|[ \t]*\b(?:slide|page)[ \t]*\d+[ \t]*$`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	trailingNumRe  = regexp.MustCompile(`\d+\s*$`)
	ellipsisRe     = regexp.MustCompile(`\.{3,}`)
	dashRunRe      = regexp.MustCompile(`-{3,}`)
	bulletRe       = regexp.MustCompile(`[•▪▫‣⁃]\s*`)
	sentenceRe     = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// DocumentChunker turns pages into chunks ready for embedding
type DocumentChunker struct {
	vocab        *Vocabulary
	chunkSize    int
	overlapWords int
	now          func() time.Time
}

// NewDocumentChunker creates a chunker. Non-positive sizes fall back to the defaults.
func NewDocumentChunker(vocab *Vocabulary, chunkSize, overlapWords int) *DocumentChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlapWords < 0 {
		overlapWords = DefaultChunkOverlap
	}
	return &DocumentChunker{
		vocab:        vocab,
		chunkSize:    chunkSize,
		overlapWords: overlapWords,
		now:          time.Now,
	}
}

// Chunk splits every page of a document. Chunk indexes run across the whole
// source in page order. Boundaries depend only on the input text and sizes.
func (dc *DocumentChunker) Chunk(pages []models.Page, sourceFile string) []models.Chunk {
	ingestedAt := dc.now().UTC()
	var chunks []models.Chunk

	for _, page := range pages {
		for _, text := range dc.splitPage(page.Text) {
			chunks = append(chunks, models.Chunk{
				ID:   uuid.NewString(),
				Text: text,
				Metadata: models.ChunkMetadata{
					SourceFile:  sourceFile,
					Page:        page.Number,
					ChunkIndex:  len(chunks),
					ContentType: models.ContentTypeEducational,
					WordCount:   len(strings.Fields(text)),
					Topic:       ExtractTopic(text),
					IngestedAt:  ingestedAt,
				},
			})
		}
	}

	return chunks
}

// splitPage returns the chunk texts for one page
func (dc *DocumentChunker) splitPage(raw string) []string {
	text := CleanText(raw)
	if charCount(text) < MinPageChars {
		return nil
	}

	sentences := splitSentences(text)
	if len(sentences) <= ShortPageSentences {
		if charCount(text) >= MinChunkChars && dc.looksEducational(text) {
			return []string{text}
		}
		return nil
	}

	var (
		chunks  []string
		current []string
		words   int
	)

	for _, sentence := range sentences {
		n := wordCount(sentence)

		if words+n > dc.chunkSize && len(current) > 0 {
			if closed := strings.Join(current, " "); charCount(closed) >= MinChunkChars {
				chunks = append(chunks, closed)
			}
			current = append(dc.overlapTail(current), sentence)
			words = 0
			for _, s := range current {
				words += wordCount(s)
			}
			continue
		}

		current = append(current, sentence)
		words += n
	}

	if len(current) > 0 {
		if last := strings.Join(current, " "); charCount(last) >= MinChunkChars {
			chunks = append(chunks, last)
		}
	}

	return chunks
}

// overlapTail picks up to MaxOverlapSentences trailing sentences within the
// overlap word budget. The final sentence is always carried.
func (dc *DocumentChunker) overlapTail(sentences []string) []string {
	last := len(sentences) - 1
	start := last
	budget := wordCount(sentences[last])

	for i := last - 1; i >= 0 && last-i < MaxOverlapSentences; i-- {
		w := wordCount(sentences[i])
		if budget+w > dc.overlapWords {
			break
		}
		budget += w
		start = i
	}

	return append([]string(nil), sentences[start:]...)
}

func (dc *DocumentChunker) looksEducational(text string) bool {
	lower := strings.ToLower(text)
	if containsAny(lower, dc.vocab.pedagogicalIndicators) {
		return true
	}
	return !containsAny(lower, dc.vocab.advertisingTerms)
}

// CleanText strips slide and page markers that open or close a line, header/footer
// lines, bullets, and trailing page numbers, then collapses whitespace.
// Page references inside sentences are kept.
func CleanText(raw string) string {
	text := headerFooterRe.ReplaceAllString(raw, "")
	text = pageMarkerRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = ellipsisRe.ReplaceAllString(text, "...")
	text = dashRunRe.ReplaceAllString(text, "---")
	text = strings.TrimSpace(text)
	text = trailingNumRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// splitSentences splits on terminal punctuation, keeping it with each sentence
func splitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		s = strings.TrimSpace(s)
		if strings.Trim(s, ".!? ") == "" {
			continue
		}
		sentences = append(sentences, s)
	}
	return sentences
}

// charCount measures text in characters, not bytes
func charCount(s string) int {
	return utf8.RuneCountInString(s)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// ExtractTopic returns the first '.'-separated sentence between 10 and 80
// characters, else a 60-character prefix of the text.
func ExtractTopic(text string) string {
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if n := charCount(s); n > 10 && n < 80 {
			return s
		}
	}
	runes := []rune(text)
	if len(runes) > 60 {
		return string(runes[:60]) + "..."
	}
	return text
}
