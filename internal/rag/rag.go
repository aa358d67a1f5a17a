// Package rag wires retrieval, generation and session state into the
// query pipeline the API exposes.
package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/p-lizarazo/coursechat/internal/course"
	"github.com/p-lizarazo/coursechat/internal/log"
	"github.com/p-lizarazo/coursechat/internal/tools"
)

// AnswerGenerator produces an answer for one query given prior
// conversation text. Defined by the consumer; *generator.Generator
// satisfies it.
type AnswerGenerator interface {
	Generate(ctx context.Context, query, history string) (string, error)
}

// SessionStore tracks conversation history. *session.Store satisfies it.
type SessionStore interface {
	Create() string
	AddExchange(id, query, answer string)
	History(id string) string
	Clear(id string) error
}

// DocumentStore indexes courses and serves catalog analytics.
// *store.CourseStore satisfies it.
type DocumentStore interface {
	Exists(ctx context.Context, title string) (bool, error)
	AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) error
	ListCourseTitles(ctx context.Context) ([]string, error)
	CountCourses(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Analytics summarizes the indexed catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// Answer is the result of one query.
type Answer struct {
	Text      string
	Sources   []tools.Source
	SessionID string
}

// System orchestrates the query pipeline: session lookup, generation
// with tool use, source collection and history update.
type System struct {
	generator AnswerGenerator
	sessions  SessionStore
	store     DocumentStore
	processor *course.Processor
	logger    log.Logger
}

// New creates a System.
func New(gen AnswerGenerator, sessions SessionStore, docs DocumentStore, processor *course.Processor, logger log.Logger) (*System, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if docs == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if processor == nil {
		processor = course.NewProcessor(0, 0)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &System{
		generator: gen,
		sessions:  sessions,
		store:     docs,
		processor: processor,
		logger:    logger,
	}, nil
}

// Query answers one user question. An empty sessionID starts a new
// session; the returned Answer always carries the session in effect.
// The exchange is appended to history only on success.
func (s *System) Query(ctx context.Context, query, sessionID string) (*Answer, error) {
	if sessionID == "" {
		sessionID = s.sessions.Create()
	}

	ctx, recorder := tools.WithRecorder(ctx)
	history := s.sessions.History(sessionID)

	prompt := fmt.Sprintf("Answer this question about course materials: %s", query)
	answer, err := s.generator.Generate(ctx, prompt, history)
	if err != nil {
		return nil, fmt.Errorf("answering query: %w", err)
	}

	s.sessions.AddExchange(sessionID, query, answer)
	s.logger.Info("answered query", "session_id", sessionID, "sources", len(recorder.Sources()))

	return &Answer{
		Text:      answer,
		Sources:   recorder.Sources(),
		SessionID: sessionID,
	}, nil
}

// AddCourseDocument parses, chunks and indexes a single course document.
// Returns the parsed course and its chunk count.
func (s *System) AddCourseDocument(ctx context.Context, path string) (*course.Course, int, error) {
	c, chunks, err := s.processor.ProcessFile(path)
	if err != nil {
		return nil, 0, err
	}
	if err := s.store.AddCourse(ctx, c, chunks); err != nil {
		return nil, 0, err
	}
	return c, len(chunks), nil
}

// AddCourseFolder indexes every course document in dir, skipping courses
// whose exact title is already present. With clear set, all existing
// data is removed first. Returns the number of courses and chunks added.
func (s *System) AddCourseFolder(ctx context.Context, dir string, clear bool) (int, int, error) {
	if clear {
		if err := s.store.Clear(ctx); err != nil {
			return 0, 0, err
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading docs folder: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var coursesAdded, chunksAdded int
	for _, name := range names {
		path := filepath.Join(dir, name)

		c, chunks, err := s.processor.ProcessFile(path)
		if err != nil {
			// One bad document should not abort the whole folder.
			s.logger.Warn("skipping document", "path", path, "error", err)
			continue
		}

		exists, err := s.store.Exists(ctx, c.Title)
		if err != nil {
			return coursesAdded, chunksAdded, err
		}
		if exists {
			s.logger.Debug("course already indexed", "title", c.Title)
			continue
		}

		if err := s.store.AddCourse(ctx, c, chunks); err != nil {
			return coursesAdded, chunksAdded, fmt.Errorf("indexing %s: %w", path, err)
		}
		coursesAdded++
		chunksAdded += len(chunks)
		s.logger.Info("indexed course", "title", c.Title, "chunks", len(chunks))
	}

	return coursesAdded, chunksAdded, nil
}

// Analytics returns the indexed course count and titles.
func (s *System) Analytics(ctx context.Context) (*Analytics, error) {
	count, err := s.store.CountCourses(ctx)
	if err != nil {
		return nil, err
	}
	titles, err := s.store.ListCourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	if titles == nil {
		titles = []string{}
	}
	return &Analytics{TotalCourses: count, CourseTitles: titles}, nil
}

// ClearSession discards one conversation's history.
func (s *System) ClearSession(id string) error {
	return s.sessions.Clear(id)
}
