// Package course models course transcripts and turns them into
// retrieval-ready chunks.
//
// A course document is a plain text file with a three-line header
// (Course Title / Course Link / Course Instructor) followed by
// "Lesson N: <title>" markers, each optionally followed by a
// "Lesson Link: <url>" line. The processor parses that structure and
// splits the lesson text into overlapping, sentence-aware chunks.
package course

// Course is a parsed course with its ordered lessons.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson is a single lesson within a course.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Chunk is a bounded span of course text with enough metadata to attribute
// it back to its course and lesson. LessonNumber is nil for text that
// appears before the first lesson marker.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Index        int
}

// Lesson returns the lesson with the given number, or false if the course
// has no such lesson.
func (c *Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}
