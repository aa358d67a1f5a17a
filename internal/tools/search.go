// Package tools defines the retrieval tools the model can call while
// answering a query, and the executor that dispatches its tool requests.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/p-lizarazo/coursechat/internal/course"
	"github.com/p-lizarazo/coursechat/internal/store"
)

// Tool names registered with Genkit.
const (
	// SearchToolName is the Genkit tool name for semantic content search.
	SearchToolName = "search_course_content"
	// OutlineToolName is the Genkit tool name for course outline lookup.
	OutlineToolName = "get_course_outline"
)

// CourseStore is the retrieval surface the tool handlers depend on.
// Defined by the consumer; *store.CourseStore satisfies it.
type CourseStore interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) ([]store.SearchResult, error)
	LessonLink(ctx context.Context, title string, lessonNumber int) (string, error)
	Outline(ctx context.Context, name string) (*course.Course, error)
}

// SearchInput defines input for the search_course_content tool.
type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in course content"`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title, full or partial (e.g. 'MCP', 'Introduction')"`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 1, 2, 3)"`
}

// SearchCourseContent searches course materials and formats matches for
// the model. Domain failures (no matching course, nothing found) come
// back as plain messages rather than errors so the model can react to
// them; only infrastructure failures return an error.
func (k *Kit) SearchCourseContent(ctx *ai.ToolContext, input SearchInput) (string, error) {
	k.logger.Info("search_course_content called",
		"query", input.Query, "course_name", input.CourseName, "lesson_number", input.LessonNumber)

	results, err := k.store.Search(ctx.Context, input.Query, input.CourseName, input.LessonNumber)
	if err != nil {
		if errors.Is(err, store.ErrCourseNotFound) {
			return fmt.Sprintf("No course found matching '%s'", input.CourseName), nil
		}
		k.logger.Warn("search failed", "query", input.Query, "error", err)
		return "", fmt.Errorf("searching course content: %w", err)
	}

	if len(results) == 0 {
		return noResultsMessage(input), nil
	}

	blocks := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		header := r.CourseTitle
		var link string
		if r.LessonNumber != nil {
			header = fmt.Sprintf("%s - Lesson %d", r.CourseTitle, *r.LessonNumber)
			link, err = k.store.LessonLink(ctx.Context, r.CourseTitle, *r.LessonNumber)
			if err != nil {
				// Link lookup is cosmetic; keep the result without it.
				k.logger.Warn("lesson link lookup failed", "course", r.CourseTitle, "error", err)
				link = ""
			}
		}

		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", header, r.Content))
		sources = append(sources, Source{Label: header, Link: link})
	}

	RecordSources(ctx.Context, sources...)
	return strings.Join(blocks, "\n\n"), nil
}

// noResultsMessage names the active filters so the model can tell the
// user what was searched.
func noResultsMessage(input SearchInput) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if input.CourseName != "" {
		fmt.Fprintf(&b, " in course '%s'", input.CourseName)
	}
	if input.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *input.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}
