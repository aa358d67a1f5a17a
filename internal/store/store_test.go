package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-lizarazo/coursechat/internal/course"
)

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	embedErr    error
	returnEmpty bool
	embeddings  []float32
	callCount   int
	lastInput   string
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(api.Registry) {}

func (m *mockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.lastInput = req.Input[0].Content[0].Text
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.returnEmpty {
		return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: []float32{}}}}, nil
	}
	emb := m.embeddings
	if emb == nil {
		emb = []float32{0.1, 0.2, 0.3}
	}
	return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: emb}}}, nil
}

// mockQuerier implements Querier for testing.
type mockQuerier struct {
	upsertErr  error
	chunkErr   error
	searchErr  error
	nearestErr error

	existsResult  bool
	titles        []string
	countResult   int64
	nearestResult NearestCourseRow
	courseRow     GetCourseRow
	courseErr     error
	searchResults []SearchChunksRow

	upsertCalls  []UpsertCourseParams
	chunkCalls   []InsertChunkParams
	searchCalls  []SearchChunksParams
	clearCalls   int
	nearestCalls int
}

func (m *mockQuerier) UpsertCourse(_ context.Context, arg UpsertCourseParams) error {
	m.upsertCalls = append(m.upsertCalls, arg)
	return m.upsertErr
}

func (m *mockQuerier) InsertChunk(_ context.Context, arg InsertChunkParams) error {
	m.chunkCalls = append(m.chunkCalls, arg)
	return m.chunkErr
}

func (m *mockQuerier) CourseExists(context.Context, string) (bool, error) {
	return m.existsResult, nil
}

func (m *mockQuerier) ListCourseTitles(context.Context) ([]string, error) {
	return m.titles, nil
}

func (m *mockQuerier) CountCourses(context.Context) (int64, error) {
	return m.countResult, nil
}

func (m *mockQuerier) NearestCourse(context.Context, *pgvector.Vector) (NearestCourseRow, error) {
	m.nearestCalls++
	if m.nearestErr != nil {
		return NearestCourseRow{}, m.nearestErr
	}
	return m.nearestResult, nil
}

func (m *mockQuerier) GetCourse(context.Context, string) (GetCourseRow, error) {
	if m.courseErr != nil {
		return GetCourseRow{}, m.courseErr
	}
	return m.courseRow, nil
}

func (m *mockQuerier) SearchChunks(_ context.Context, arg SearchChunksParams) ([]SearchChunksRow, error) {
	m.searchCalls = append(m.searchCalls, arg)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResults, nil
}

func (m *mockQuerier) ClearAll(context.Context) error {
	m.clearCalls++
	return nil
}

func intPtr(n int) *int { return &n }

func TestCourseStore_AddCourse(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{}
	e := &mockEmbedder{}
	s := New(q, e, 5, nil)

	c := &course.Course{
		Title:      "Intro to MCP",
		Link:       "https://example.com/mcp",
		Instructor: "Greg Kamradt",
		Lessons:    []course.Lesson{{Number: 1, Title: "Basics", Link: "https://example.com/1"}},
	}
	chunks := []course.Chunk{
		{Content: "Course Intro to MCP Lesson 1 content: hello", CourseTitle: c.Title, LessonNumber: intPtr(1), Index: 0},
		{Content: "Course Intro to MCP content: preamble", CourseTitle: c.Title, Index: 1},
	}

	require.NoError(t, s.AddCourse(context.Background(), c, chunks))

	require.Len(t, q.upsertCalls, 1)
	assert.Equal(t, "Intro to MCP", q.upsertCalls[0].Title)
	require.NotNil(t, q.upsertCalls[0].TitleEmbedding)

	var lessons []course.Lesson
	require.NoError(t, json.Unmarshal(q.upsertCalls[0].Lessons, &lessons))
	require.Len(t, lessons, 1)
	assert.Equal(t, "Basics", lessons[0].Title)

	require.Len(t, q.chunkCalls, 2)
	assert.True(t, q.chunkCalls[0].LessonNumber.Valid)
	assert.Equal(t, int32(1), q.chunkCalls[0].LessonNumber.Int32)
	assert.False(t, q.chunkCalls[1].LessonNumber.Valid, "preamble chunk has null lesson")
	assert.Equal(t, 3, e.callCount, "title plus each chunk is embedded")
}

func TestCourseStore_AddCourse_EmbedError(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{}
	e := &mockEmbedder{embedErr: errors.New("quota exceeded")}
	s := New(q, e, 5, nil)

	err := s.AddCourse(context.Background(), &course.Course{Title: "X"}, nil)
	require.Error(t, err)
	assert.Empty(t, q.upsertCalls, "nothing stored when embedding fails")
}

func TestCourseStore_Search_Unfiltered(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{
		searchResults: []SearchChunksRow{
			{Content: "chunk one", CourseTitle: "A", LessonNumber: pgtype.Int4{Int32: 2, Valid: true}, Distance: 0.1},
			{Content: "chunk two", CourseTitle: "B", Distance: 0.3},
		},
	}
	s := New(q, &mockEmbedder{}, 5, nil)

	results, err := s.Search(context.Background(), "what is MCP", "", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "chunk one", results[0].Content)
	require.NotNil(t, results[0].LessonNumber)
	assert.Equal(t, 2, *results[0].LessonNumber)
	assert.Nil(t, results[1].LessonNumber)

	require.Len(t, q.searchCalls, 1)
	assert.False(t, q.searchCalls[0].CourseTitle.Valid, "no course filter")
	assert.False(t, q.searchCalls[0].LessonNumber.Valid, "no lesson filter")
	assert.Equal(t, int32(5), q.searchCalls[0].ResultLimit)
	assert.Zero(t, q.nearestCalls, "no name resolution without a course filter")
}

func TestCourseStore_Search_ResolvesCourseName(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{
		nearestResult: NearestCourseRow{Title: "Introduction to MCP Servers", Distance: 0.12},
	}
	s := New(q, &mockEmbedder{}, 5, nil)

	_, err := s.Search(context.Background(), "tools", "MCP", intPtr(3))
	require.NoError(t, err)

	require.Len(t, q.searchCalls, 1)
	assert.Equal(t, 1, q.nearestCalls)
	require.True(t, q.searchCalls[0].CourseTitle.Valid)
	assert.Equal(t, "Introduction to MCP Servers", q.searchCalls[0].CourseTitle.String)
	require.True(t, q.searchCalls[0].LessonNumber.Valid)
	assert.Equal(t, int32(3), q.searchCalls[0].LessonNumber.Int32)
}

func TestCourseStore_Search_CourseNotFound(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{nearestErr: pgx.ErrNoRows}
	s := New(q, &mockEmbedder{}, 5, nil)

	_, err := s.Search(context.Background(), "q", "Nonexistent", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCourseNotFound))
	assert.Empty(t, q.searchCalls, "no search when resolution fails")
}

func TestCourseStore_Search_EmptyEmbedding(t *testing.T) {
	t.Parallel()

	s := New(&mockQuerier{}, &mockEmbedder{returnEmpty: true}, 5, nil)

	_, err := s.Search(context.Background(), "q", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyEmbedding))
}

func TestCourseStore_Outline(t *testing.T) {
	t.Parallel()

	lessons, err := json.Marshal([]course.Lesson{
		{Number: 0, Title: "Intro", Link: "https://example.com/0"},
		{Number: 1, Title: "Deep Dive"},
	})
	require.NoError(t, err)

	q := &mockQuerier{
		nearestResult: NearestCourseRow{Title: "Full Title"},
		courseRow: GetCourseRow{
			Title:      "Full Title",
			Link:       "https://example.com",
			Instructor: "T",
			Lessons:    lessons,
		},
	}
	s := New(q, &mockEmbedder{}, 5, nil)

	c, err := s.Outline(context.Background(), "full")
	require.NoError(t, err)
	assert.Equal(t, "Full Title", c.Title)
	assert.Equal(t, "https://example.com", c.Link)
	require.Len(t, c.Lessons, 2)
	assert.Equal(t, "Deep Dive", c.Lessons[1].Title)
}

func TestCourseStore_LessonLink(t *testing.T) {
	t.Parallel()

	lessons, err := json.Marshal([]course.Lesson{
		{Number: 4, Title: "L", Link: "https://example.com/4"},
	})
	require.NoError(t, err)

	q := &mockQuerier{courseRow: GetCourseRow{Title: "C", Lessons: lessons}}
	s := New(q, &mockEmbedder{}, 5, nil)

	link, err := s.LessonLink(context.Background(), "C", 4)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/4", link)

	link, err = s.LessonLink(context.Background(), "C", 9)
	require.NoError(t, err)
	assert.Empty(t, link, "unknown lesson yields empty link, not an error")
}

func TestCourseStore_Analytics(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{titles: []string{"A", "B"}, countResult: 2}
	s := New(q, &mockEmbedder{}, 5, nil)

	titles, err := s.ListCourseTitles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titles)

	n, err := s.CountCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCourseStore_Clear(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{}
	s := New(q, &mockEmbedder{}, 5, nil)
	require.NoError(t, s.Clear(context.Background()))
	assert.Equal(t, 1, q.clearCalls)
}
