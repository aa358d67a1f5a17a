package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/p-lizarazo/coursechat/internal/store"
)

// OutlineInput defines input for the get_course_outline tool.
type OutlineInput struct {
	CourseTitle string `json:"course_title" jsonschema_description:"Course title, full or partial (e.g. 'MCP', 'Introduction')"`
}

// GetCourseOutline returns a course's title, link, instructor and
// complete lesson list. Unknown courses come back as a plain message so
// the model can relay it.
func (k *Kit) GetCourseOutline(ctx *ai.ToolContext, input OutlineInput) (string, error) {
	k.logger.Info("get_course_outline called", "course_title", input.CourseTitle)

	c, err := k.store.Outline(ctx.Context, input.CourseTitle)
	if err != nil {
		if errors.Is(err, store.ErrCourseNotFound) {
			return fmt.Sprintf("No course found matching '%s'", input.CourseTitle), nil
		}
		k.logger.Warn("outline lookup failed", "course_title", input.CourseTitle, "error", err)
		return "", fmt.Errorf("fetching course outline: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", c.Link)
	}
	if c.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", c.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(c.Lessons))
	for _, l := range c.Lessons {
		if l.Link != "" {
			fmt.Fprintf(&b, "%d. %s (%s)\n", l.Number, l.Title, l.Link)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", l.Number, l.Title)
		}
	}

	RecordSources(ctx.Context, Source{Label: c.Title, Link: c.Link})
	return strings.TrimRight(b.String(), "\n"), nil
}
