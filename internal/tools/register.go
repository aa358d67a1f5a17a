package tools

import (
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/p-lizarazo/coursechat/internal/log"
)

// Kit holds dependencies for the tool handlers.
type Kit struct {
	store  CourseStore
	logger log.Logger
}

// NewKit creates a Kit.
func NewKit(store CourseStore, logger log.Logger) (*Kit, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Kit{store: store, logger: logger}, nil
}

// Register registers the retrieval tools with Genkit and returns their
// references for use in generation requests.
func Register(g *genkit.Genkit, k *Kit) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if k == nil {
		return nil, fmt.Errorf("kit is required")
	}

	return []ai.Tool{
		genkit.DefineTool(g, SearchToolName,
			"Search course materials using semantic similarity. "+
				"Finds content chunks conceptually related to the query. "+
				"Optionally filter by course name (full or partial) and lesson number. "+
				"Use this for questions about specific course content or detailed educational materials.",
			k.SearchCourseContent),
		genkit.DefineTool(g, OutlineToolName,
			"Get a course's outline: title, course link, instructor and the full lesson list "+
				"with lesson numbers and titles. "+
				"Use this for questions about a course's structure or what lessons it contains.",
			k.GetCourseOutline),
	}, nil
}
