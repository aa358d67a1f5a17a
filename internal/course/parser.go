package course

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrEmptyDocument indicates the document contains no usable content.
var ErrEmptyDocument = errors.New("empty course document")

// Header line prefixes. Matching is case-insensitive.
const (
	titlePrefix      = "course title:"
	linkPrefix       = "course link:"
	instructorPrefix = "course instructor:"
	lessonLinkPrefix = "lesson link:"
)

// lessonMarker matches "Lesson N: <title>" at the start of a line.
var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// maxScanTokenSize allows long transcript lines (1MB).
const maxScanTokenSize = 1 << 20

// Section pairs a parsed lesson with its raw transcript text.
// Lesson is nil for preamble text before the first lesson marker.
type Section struct {
	Lesson *int
	Text   string
}

// ParseFile reads and parses a course document from disk.
func ParseFile(path string) (*Course, []Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening course document: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	c, texts, err := Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, texts, nil
}

// Parse parses a course document from r.
//
// The three header lines are positional but tolerant: a missing or
// unrecognized first line is treated as the raw course title so that
// loosely formatted documents still ingest. Lesson links must appear on
// the line directly after their lesson marker.
func Parse(r io.Reader) (*Course, []Section, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading course document: %w", err)
	}

	// Skip leading blank lines.
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) {
		return nil, nil, ErrEmptyDocument
	}

	c := &Course{}

	// Header: up to three lines of title / link / instructor.
	i := start
	if v, ok := headerValue(lines[i], titlePrefix); ok {
		c.Title = v
		i++
	} else {
		// Fall back to the raw first line as the title.
		c.Title = strings.TrimSpace(lines[i])
		i++
	}
	if i < len(lines) {
		if v, ok := headerValue(lines[i], linkPrefix); ok {
			c.Link = v
			i++
		}
	}
	if i < len(lines) {
		if v, ok := headerValue(lines[i], instructorPrefix); ok {
			c.Instructor = v
			i++
		}
	}

	if c.Title == "" {
		return nil, nil, ErrEmptyDocument
	}

	// Body: split on lesson markers.
	var (
		texts   []Section
		current *Section
		buf     strings.Builder
	)

	flush := func() {
		if current == nil {
			// Preamble before the first lesson marker.
			if text := strings.TrimSpace(buf.String()); text != "" {
				texts = append(texts, Section{Lesson: nil, Text: text})
			}
		} else {
			current.Text = strings.TrimSpace(buf.String())
			texts = append(texts, *current)
		}
		buf.Reset()
	}

	for ; i < len(lines); i++ {
		line := lines[i]

		if m := lessonMarker.FindStringSubmatch(line); m != nil {
			flush()

			num, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, nil, fmt.Errorf("invalid lesson number %q: %w", m[1], err)
			}
			lesson := Lesson{Number: num, Title: strings.TrimSpace(m[2])}

			// Optional lesson link on the next line.
			if i+1 < len(lines) {
				if v, ok := headerValue(lines[i+1], lessonLinkPrefix); ok {
					lesson.Link = v
					i++
				}
			}

			c.Lessons = append(c.Lessons, lesson)
			n := num
			current = &Section{Lesson: &n}
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()

	if len(c.Lessons) == 0 && len(texts) == 0 {
		return nil, nil, ErrEmptyDocument
	}

	return c, texts, nil
}

// headerValue extracts the value of a "Prefix: value" header line.
// Returns false if the line does not carry the prefix.
func headerValue(line, prefix string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < len(prefix) || !strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(prefix):]), true
}
