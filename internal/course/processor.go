package course

import (
	"fmt"
	"io"
)

// Processor turns course documents into chunk records ready for indexing.
type Processor struct {
	chunkSize int
	overlap   int
}

// NewProcessor creates a Processor with the given chunking parameters.
// Non-positive values fall back to conservative defaults.
func NewProcessor(chunkSize, overlap int) *Processor {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &Processor{chunkSize: chunkSize, overlap: overlap}
}

// ProcessFile parses and chunks a course document from disk.
func (p *Processor) ProcessFile(path string) (*Course, []Chunk, error) {
	c, sections, err := ParseFile(path)
	if err != nil {
		return nil, nil, err
	}
	return c, p.chunk(c, sections), nil
}

// Process parses and chunks a course document from r.
func (p *Processor) Process(r io.Reader) (*Course, []Chunk, error) {
	c, sections, err := Parse(r)
	if err != nil {
		return nil, nil, err
	}
	return c, p.chunk(c, sections), nil
}

// chunk converts parsed sections into chunk records with a course/lesson
// context prefix. The prefix keeps retrieval effective when a chunk is
// embedded in isolation: a window of raw transcript rarely names its own
// course or lesson.
func (p *Processor) chunk(c *Course, sections []Section) []Chunk {
	var chunks []Chunk
	index := 0

	for _, sec := range sections {
		for _, text := range chunkText(sec.Text, p.chunkSize, p.overlap) {
			content := text
			if sec.Lesson != nil {
				content = fmt.Sprintf("Course %s Lesson %d content: %s", c.Title, *sec.Lesson, text)
			} else {
				content = fmt.Sprintf("Course %s content: %s", c.Title, text)
			}

			chunks = append(chunks, Chunk{
				Content:      content,
				CourseTitle:  c.Title,
				LessonNumber: sec.Lesson,
				Index:        index,
			})
			index++
		}
	}

	return chunks
}
