package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/p-lizarazo/coursechat/internal/course"
	"github.com/p-lizarazo/coursechat/internal/log"
)

// searchTimeout bounds vector search queries so a slow index cannot
// block a request indefinitely.
const searchTimeout = 10 * time.Second

// Querier is the database surface CourseStore depends on. Defined by the
// consumer so tests can substitute a mock; *Queries satisfies it.
type Querier interface {
	UpsertCourse(ctx context.Context, arg UpsertCourseParams) error
	InsertChunk(ctx context.Context, arg InsertChunkParams) error
	CourseExists(ctx context.Context, title string) (bool, error)
	ListCourseTitles(ctx context.Context) ([]string, error)
	CountCourses(ctx context.Context) (int64, error)
	NearestCourse(ctx context.Context, embedding *pgvector.Vector) (NearestCourseRow, error)
	GetCourse(ctx context.Context, title string) (GetCourseRow, error)
	SearchChunks(ctx context.Context, arg SearchChunksParams) ([]SearchChunksRow, error)
	ClearAll(ctx context.Context) error
}

// CourseStore manages course metadata and embedded content chunks.
// It generates embeddings on write and on query, and resolves partial
// course names to catalog titles by embedding similarity.
//
// CourseStore is safe for concurrent use.
type CourseStore struct {
	queries    Querier
	embedder   ai.Embedder
	maxResults int
	logger     log.Logger
}

// New creates a CourseStore. maxResults caps Search result counts;
// non-positive values fall back to 5. A nil logger discards output.
func New(querier Querier, embedder ai.Embedder, maxResults int, logger log.Logger) *CourseStore {
	if maxResults <= 0 {
		maxResults = 5
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &CourseStore{
		queries:    querier,
		embedder:   embedder,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Exists reports whether a course with this exact title is already indexed.
func (s *CourseStore) Exists(ctx context.Context, title string) (bool, error) {
	ok, err := s.queries.CourseExists(ctx, title)
	if err != nil {
		return false, fmt.Errorf("checking course %q: %w", title, err)
	}
	return ok, nil
}

// AddCourse indexes a course: its catalog entry (with a title embedding
// for fuzzy name resolution) and every content chunk. Chunks are embedded
// one at a time; a failure aborts the whole course.
func (s *CourseStore) AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) error {
	titleVec, err := s.embed(ctx, c.Title)
	if err != nil {
		return fmt.Errorf("embedding course title %q: %w", c.Title, err)
	}

	lessonsJSON, err := json.Marshal(c.Lessons)
	if err != nil {
		return fmt.Errorf("marshaling lessons for %q: %w", c.Title, err)
	}

	if err := s.queries.UpsertCourse(ctx, UpsertCourseParams{
		Title:          c.Title,
		Link:           c.Link,
		Instructor:     c.Instructor,
		Lessons:        lessonsJSON,
		TitleEmbedding: &titleVec,
	}); err != nil {
		return fmt.Errorf("storing course %q: %w", c.Title, err)
	}

	for _, ch := range chunks {
		vec, err := s.embed(ctx, ch.Content)
		if err != nil {
			return fmt.Errorf("embedding chunk %d of %q: %w", ch.Index, c.Title, err)
		}

		var lesson pgtype.Int4
		if ch.LessonNumber != nil {
			lesson = pgtype.Int4{Int32: int32(*ch.LessonNumber), Valid: true}
		}

		if err := s.queries.InsertChunk(ctx, InsertChunkParams{
			CourseTitle:  ch.CourseTitle,
			LessonNumber: lesson,
			ChunkIndex:   int32(ch.Index),
			Content:      ch.Content,
			Embedding:    &vec,
		}); err != nil {
			return fmt.Errorf("storing chunk %d of %q: %w", ch.Index, c.Title, err)
		}
	}

	s.logger.Debug("indexed course", "title", c.Title, "chunks", len(chunks))
	return nil
}

// Search finds the chunks most similar to query. courseName, when
// non-empty, is resolved to a catalog title by embedding similarity
// before filtering; lessonNumber, when non-nil, restricts results to one
// lesson. Returns ErrCourseNotFound if courseName matches nothing.
func (s *CourseStore) Search(ctx context.Context, query, courseName string, lessonNumber *int) ([]SearchResult, error) {
	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	var title pgtype.Text
	if courseName != "" {
		resolved, err := s.ResolveCourseName(queryCtx, courseName)
		if err != nil {
			return nil, err
		}
		title = pgtype.Text{String: resolved, Valid: true}
	}

	var lesson pgtype.Int4
	if lessonNumber != nil {
		lesson = pgtype.Int4{Int32: int32(*lessonNumber), Valid: true}
	}

	vec, err := s.embed(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.queries.SearchChunks(queryCtx, SearchChunksParams{
		QueryEmbedding: &vec,
		CourseTitle:    title,
		LessonNumber:   lesson,
		ResultLimit:    int32(s.maxResults),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(rows))
	for _, r := range rows {
		var n *int
		if r.LessonNumber.Valid {
			v := int(r.LessonNumber.Int32)
			n = &v
		}
		results = append(results, SearchResult{
			Content:      r.Content,
			CourseTitle:  r.CourseTitle,
			LessonNumber: n,
			Distance:     r.Distance,
		})
	}
	return results, nil
}

// ResolveCourseName maps a partial or fuzzy course name ("MCP",
// "intro to ML") to the nearest catalog title by embedding similarity.
// Returns ErrCourseNotFound when the catalog is empty.
func (s *CourseStore) ResolveCourseName(ctx context.Context, name string) (string, error) {
	vec, err := s.embed(ctx, name)
	if err != nil {
		return "", fmt.Errorf("embedding course name %q: %w", name, err)
	}

	row, err := s.queries.NearestCourse(ctx, &vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %q", ErrCourseNotFound, name)
		}
		return "", fmt.Errorf("resolving course name %q: %w", name, err)
	}

	s.logger.Debug("resolved course name", "input", name, "title", row.Title, "distance", row.Distance)
	return row.Title, nil
}

// Outline returns the full catalog entry for a course, resolving fuzzy
// names the same way Search does.
func (s *CourseStore) Outline(ctx context.Context, name string) (*course.Course, error) {
	title, err := s.ResolveCourseName(ctx, name)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.GetCourse(ctx, title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrCourseNotFound, title)
		}
		return nil, fmt.Errorf("fetching course %q: %w", title, err)
	}

	c := &course.Course{
		Title:      row.Title,
		Link:       row.Link,
		Instructor: row.Instructor,
	}
	if len(row.Lessons) > 0 {
		if err := json.Unmarshal(row.Lessons, &c.Lessons); err != nil {
			return nil, fmt.Errorf("decoding lessons for %q: %w", title, err)
		}
	}
	return c, nil
}

// LessonLink returns the link for one lesson of a course, or "" when the
// lesson has no link. Course titles must be exact here; the caller has
// already resolved them.
func (s *CourseStore) LessonLink(ctx context.Context, title string, lessonNumber int) (string, error) {
	row, err := s.queries.GetCourse(ctx, title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %q", ErrCourseNotFound, title)
		}
		return "", fmt.Errorf("fetching course %q: %w", title, err)
	}

	var lessons []course.Lesson
	if len(row.Lessons) > 0 {
		if err := json.Unmarshal(row.Lessons, &lessons); err != nil {
			return "", fmt.Errorf("decoding lessons for %q: %w", title, err)
		}
	}
	for _, l := range lessons {
		if l.Number == lessonNumber {
			return l.Link, nil
		}
	}
	return "", nil
}

// ListCourseTitles returns every indexed course title.
func (s *CourseStore) ListCourseTitles(ctx context.Context) ([]string, error) {
	titles, err := s.queries.ListCourseTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing course titles: %w", err)
	}
	return titles, nil
}

// CountCourses returns the number of indexed courses.
func (s *CourseStore) CountCourses(ctx context.Context) (int, error) {
	n, err := s.queries.CountCourses(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting courses: %w", err)
	}
	return int(n), nil
}

// Clear removes all indexed data.
func (s *CourseStore) Clear(ctx context.Context) error {
	if err := s.queries.ClearAll(ctx); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	s.logger.Info("cleared course store")
	return nil
}

// embed generates a single embedding for text.
func (s *CourseStore) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, ErrEmptyEmbedding
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
