package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

// DBTX is the subset of pgxpool.Pool the query layer needs. Satisfied by
// *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries executes the SQL statements for the course schema.
type Queries struct {
	db DBTX
}

// NewQueries creates a Queries bound to db.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

const upsertCourseSQL = `
INSERT INTO courses (title, link, instructor, lessons, title_embedding)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (title) DO UPDATE SET
    link = EXCLUDED.link,
    instructor = EXCLUDED.instructor,
    lessons = EXCLUDED.lessons,
    title_embedding = EXCLUDED.title_embedding`

// UpsertCourseParams carries one catalog row. Lessons is JSON-encoded.
type UpsertCourseParams struct {
	Title          string
	Link           string
	Instructor     string
	Lessons        []byte
	TitleEmbedding *pgvector.Vector
}

// UpsertCourse inserts or replaces a course catalog entry.
func (q *Queries) UpsertCourse(ctx context.Context, arg UpsertCourseParams) error {
	_, err := q.db.Exec(ctx, upsertCourseSQL,
		arg.Title, arg.Link, arg.Instructor, arg.Lessons, arg.TitleEmbedding)
	return err
}

const insertChunkSQL = `
INSERT INTO course_chunks (course_title, lesson_number, chunk_index, content, embedding)
VALUES ($1, $2, $3, $4, $5)`

// InsertChunkParams carries one content chunk row.
type InsertChunkParams struct {
	CourseTitle  string
	LessonNumber pgtype.Int4
	ChunkIndex   int32
	Content      string
	Embedding    *pgvector.Vector
}

// InsertChunk stores one embedded content chunk.
func (q *Queries) InsertChunk(ctx context.Context, arg InsertChunkParams) error {
	_, err := q.db.Exec(ctx, insertChunkSQL,
		arg.CourseTitle, arg.LessonNumber, arg.ChunkIndex, arg.Content, arg.Embedding)
	return err
}

const courseExistsSQL = `SELECT EXISTS (SELECT 1 FROM courses WHERE title = $1)`

// CourseExists reports whether a course with this exact title is indexed.
func (q *Queries) CourseExists(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, courseExistsSQL, title).Scan(&exists)
	return exists, err
}

const listCourseTitlesSQL = `SELECT title FROM courses ORDER BY title`

// ListCourseTitles returns all indexed course titles in alphabetical order.
func (q *Queries) ListCourseTitles(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listCourseTitlesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

const countCoursesSQL = `SELECT count(*) FROM courses`

// CountCourses returns the number of indexed courses.
func (q *Queries) CountCourses(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countCoursesSQL).Scan(&n)
	return n, err
}

const nearestCourseSQL = `
SELECT title, title_embedding <=> $1 AS distance
FROM courses
ORDER BY title_embedding <=> $1
LIMIT 1`

// NearestCourseRow is the catalog entry closest to a name embedding.
type NearestCourseRow struct {
	Title    string
	Distance float64
}

// NearestCourse returns the course whose title embedding is nearest to
// the given vector. Returns pgx.ErrNoRows when the catalog is empty.
func (q *Queries) NearestCourse(ctx context.Context, embedding *pgvector.Vector) (NearestCourseRow, error) {
	var row NearestCourseRow
	err := q.db.QueryRow(ctx, nearestCourseSQL, embedding).Scan(&row.Title, &row.Distance)
	return row, err
}

const getCourseSQL = `SELECT title, link, instructor, lessons FROM courses WHERE title = $1`

// GetCourseRow is one full catalog entry. Lessons is JSON-encoded.
type GetCourseRow struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []byte
}

// GetCourse fetches a catalog entry by exact title.
func (q *Queries) GetCourse(ctx context.Context, title string) (GetCourseRow, error) {
	var row GetCourseRow
	err := q.db.QueryRow(ctx, getCourseSQL, title).
		Scan(&row.Title, &row.Link, &row.Instructor, &row.Lessons)
	return row, err
}

const searchChunksSQL = `
SELECT content, course_title, lesson_number, embedding <=> $1 AS distance
FROM course_chunks
WHERE ($2::text IS NULL OR course_title = $2)
  AND ($3::int IS NULL OR lesson_number = $3)
ORDER BY embedding <=> $1
LIMIT $4`

// SearchChunksParams carries a vector search with optional filters.
// A null CourseTitle or LessonNumber disables that filter.
type SearchChunksParams struct {
	QueryEmbedding *pgvector.Vector
	CourseTitle    pgtype.Text
	LessonNumber   pgtype.Int4
	ResultLimit    int32
}

// SearchChunksRow is one matched chunk with its cosine distance.
type SearchChunksRow struct {
	Content      string
	CourseTitle  string
	LessonNumber pgtype.Int4
	Distance     float64
}

// SearchChunks runs a filtered nearest-neighbor search over chunk
// embeddings, cheapest distance first.
func (q *Queries) SearchChunks(ctx context.Context, arg SearchChunksParams) ([]SearchChunksRow, error) {
	rows, err := q.db.Query(ctx, searchChunksSQL,
		arg.QueryEmbedding, arg.CourseTitle, arg.LessonNumber, arg.ResultLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SearchChunksRow
	for rows.Next() {
		var r SearchChunksRow
		if err := rows.Scan(&r.Content, &r.CourseTitle, &r.LessonNumber, &r.Distance); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const clearAllSQL = `TRUNCATE courses, course_chunks`

// ClearAll removes every course and chunk.
func (q *Queries) ClearAll(ctx context.Context) error {
	_, err := q.db.Exec(ctx, clearAllSQL)
	return err
}
