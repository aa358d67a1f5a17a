// Package store persists courses and their content chunks in PostgreSQL
// with pgvector embeddings, and serves filtered semantic search over them.
package store

import "errors"

// VectorDimension is the embedding dimensionality used by the schema.
// It must match the configured embedding model's output size.
const VectorDimension = 768

// ErrCourseNotFound indicates no course matched the requested name.
var ErrCourseNotFound = errors.New("course not found")

// ErrEmptyEmbedding indicates the embedder returned no vector.
var ErrEmptyEmbedding = errors.New("empty embedding returned")

// SearchResult is one chunk matched by a semantic search, ordered by
// ascending cosine distance to the query.
type SearchResult struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Distance     float64
}
