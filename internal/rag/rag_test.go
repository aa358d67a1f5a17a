package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-lizarazo/coursechat/internal/course"
	"github.com/p-lizarazo/coursechat/internal/session"
	"github.com/p-lizarazo/coursechat/internal/tools"
)

// fakeGenerator implements AnswerGenerator.
type fakeGenerator struct {
	answer  string
	err     error
	sources []tools.Source // recorded into the request context, like a tool would

	lastQuery   string
	lastHistory string
	calls       int
}

func (f *fakeGenerator) Generate(ctx context.Context, query, history string) (string, error) {
	f.calls++
	f.lastQuery = query
	f.lastHistory = history
	if f.err != nil {
		return "", f.err
	}
	tools.RecordSources(ctx, f.sources...)
	return f.answer, nil
}

// fakeDocStore implements DocumentStore.
type fakeDocStore struct {
	existing map[string]bool
	titles   []string
	addErr   error

	added      []string
	chunkCount int
	clearCalls int
}

func (f *fakeDocStore) Exists(_ context.Context, title string) (bool, error) {
	return f.existing[title], nil
}

func (f *fakeDocStore) AddCourse(_ context.Context, c *course.Course, chunks []course.Chunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, c.Title)
	f.chunkCount += len(chunks)
	return nil
}

func (f *fakeDocStore) ListCourseTitles(context.Context) ([]string, error) { return f.titles, nil }

func (f *fakeDocStore) CountCourses(context.Context) (int, error) { return len(f.titles), nil }

func (f *fakeDocStore) Clear(context.Context) error {
	f.clearCalls++
	return nil
}

func newTestSystem(t *testing.T, gen *fakeGenerator, docs *fakeDocStore) (*System, *session.Store) {
	t.Helper()
	sessions := session.NewStore(2)
	sys, err := New(gen, sessions, docs, course.NewProcessor(800, 100), nil)
	require.NoError(t, err)
	return sys, sessions
}

func writeCourseDoc(t *testing.T, dir, name, title string) {
	t.Helper()
	content := "Course Title: " + title + "\nCourse Link: https://example.com\nCourse Instructor: T\n\n" +
		"Lesson 1: Basics\nSome lesson content to index.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestQuery_NewSession(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		answer:  "MCP is a protocol.",
		sources: []tools.Source{{Label: "Intro to MCP - Lesson 1", Link: "https://example.com/1"}},
	}
	sys, sessions := newTestSystem(t, gen, &fakeDocStore{})

	ans, err := sys.Query(context.Background(), "What is MCP?", "")
	require.NoError(t, err)

	assert.Equal(t, "MCP is a protocol.", ans.Text)
	assert.NotEmpty(t, ans.SessionID, "missing session id starts a new session")
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "Intro to MCP - Lesson 1", ans.Sources[0].Label)

	assert.Equal(t, "Answer this question about course materials: What is MCP?", gen.lastQuery)
	assert.Empty(t, gen.lastHistory, "new session has no history")
	assert.Contains(t, sessions.History(ans.SessionID), "User: What is MCP?")
}

func TestQuery_ExistingSessionCarriesHistory(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{answer: "a2"}
	sys, sessions := newTestSystem(t, gen, &fakeDocStore{})

	id := sessions.Create()
	sessions.AddExchange(id, "first question", "first answer")

	ans, err := sys.Query(context.Background(), "follow-up", id)
	require.NoError(t, err)

	assert.Equal(t, id, ans.SessionID)
	assert.Contains(t, gen.lastHistory, "User: first question")
	assert.Contains(t, gen.lastHistory, "Assistant: first answer")
}

func TestQuery_GenerationErrorLeavesHistoryUntouched(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("model unavailable")}
	sys, sessions := newTestSystem(t, gen, &fakeDocStore{})

	id := sessions.Create()
	_, err := sys.Query(context.Background(), "q", id)
	require.Error(t, err)
	assert.Empty(t, sessions.History(id), "failed exchanges are not recorded")
}

func TestAddCourseFolder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCourseDoc(t, dir, "course1.txt", "Course One")
	writeCourseDoc(t, dir, "course2.txt", "Course Two")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o600))

	docs := &fakeDocStore{existing: map[string]bool{}}
	sys, _ := newTestSystem(t, &fakeGenerator{}, docs)

	courses, chunks, err := sys.AddCourseFolder(context.Background(), dir, false)
	require.NoError(t, err)

	assert.Equal(t, 2, courses)
	assert.Positive(t, chunks)
	assert.Equal(t, []string{"Course One", "Course Two"}, docs.added, "non-txt files are ignored")
	assert.Zero(t, docs.clearCalls)
}

func TestAddCourseFolder_SkipsExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCourseDoc(t, dir, "course1.txt", "Course One")
	writeCourseDoc(t, dir, "course2.txt", "Course Two")

	docs := &fakeDocStore{existing: map[string]bool{"Course One": true}}
	sys, _ := newTestSystem(t, &fakeGenerator{}, docs)

	courses, _, err := sys.AddCourseFolder(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, courses)
	assert.Equal(t, []string{"Course Two"}, docs.added)
}

func TestAddCourseFolder_ClearFirst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCourseDoc(t, dir, "course1.txt", "Course One")

	docs := &fakeDocStore{existing: map[string]bool{}}
	sys, _ := newTestSystem(t, &fakeGenerator{}, docs)

	_, _, err := sys.AddCourseFolder(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Equal(t, 1, docs.clearCalls)
}

func TestAddCourseFolder_BadDocumentSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("\n\n"), 0o600))
	writeCourseDoc(t, dir, "good.txt", "Good Course")

	docs := &fakeDocStore{existing: map[string]bool{}}
	sys, _ := newTestSystem(t, &fakeGenerator{}, docs)

	courses, _, err := sys.AddCourseFolder(context.Background(), dir, false)
	require.NoError(t, err, "one unparsable document does not abort the folder")
	assert.Equal(t, 1, courses)
}

func TestAddCourseDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCourseDoc(t, dir, "c.txt", "Single Course")

	docs := &fakeDocStore{}
	sys, _ := newTestSystem(t, &fakeGenerator{}, docs)

	c, chunks, err := sys.AddCourseDocument(context.Background(), filepath.Join(dir, "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Single Course", c.Title)
	assert.Positive(t, chunks)
}

func TestAnalytics(t *testing.T) {
	t.Parallel()

	docs := &fakeDocStore{titles: []string{"A", "B"}}
	sys, _ := newTestSystem(t, &fakeGenerator{}, docs)

	a, err := sys.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, a.TotalCourses)
	assert.Equal(t, []string{"A", "B"}, a.CourseTitles)
}

func TestAnalytics_EmptyCatalog(t *testing.T) {
	t.Parallel()

	sys, _ := newTestSystem(t, &fakeGenerator{}, &fakeDocStore{})
	a, err := sys.Analytics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, a.TotalCourses)
	assert.NotNil(t, a.CourseTitles, "empty catalog serializes as [] not null")
}

func TestClearSession(t *testing.T) {
	t.Parallel()

	sys, sessions := newTestSystem(t, &fakeGenerator{}, &fakeDocStore{})
	id := sessions.Create()
	require.NoError(t, sys.ClearSession(id))
	assert.ErrorIs(t, sys.ClearSession(id), session.ErrSessionNotFound)
}
