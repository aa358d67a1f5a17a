package course

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic sentences",
			text: "First sentence. Second sentence! Third sentence?",
			want: []string{"First sentence.", "Second sentence!", "Third sentence?"},
		},
		{
			name: "no terminator",
			text: "a fragment without punctuation",
			want: []string{"a fragment without punctuation"},
		},
		{
			name: "collapses whitespace",
			text: "One.\n\nTwo.\t Three.",
			want: []string{"One.", "Two.", "Three."},
		},
		{
			name: "empty",
			text: "   \n ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, splitSentences(tt.text))
		})
	}
}

func TestChunkText_RespectsSizeAndOverlap(t *testing.T) {
	t.Parallel()

	// 20 sentences of ~27 characters each.
	var sentences []string
	for i := 0; i < 20; i++ {
		sentences = append(sentences, "This is test sentence here.")
	}
	text := strings.Join(sentences, " ")

	chunks := chunkText(text, 100, 30)
	require.NotEmpty(t, chunks)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100, "chunk exceeds size limit: %q", c)
	}

	// Consecutive chunks share at least one sentence of overlap.
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][strings.LastIndex(chunks[i-1], "This is"):]
		assert.True(t, strings.HasPrefix(chunks[i], prevTail[:len("This is test sentence here.")]),
			"chunk %d does not start with the previous chunk's tail sentence", i)
	}

	// All content is covered: the joined unique text contains every sentence.
	assert.Contains(t, chunks[len(chunks)-1], "This is test sentence here.")
}

func TestChunkText_OversizedSentence(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 100) + "end."
	chunks := chunkText(long, 50, 10)

	// A sentence longer than the chunk size is kept whole.
	require.Len(t, chunks, 1)
	assert.Greater(t, len(chunks[0]), 50)
}

func TestChunkText_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, chunkText("", 800, 100))
}

func TestProcessor_ChunksCarryMetadata(t *testing.T) {
	t.Parallel()

	p := NewProcessor(200, 20)
	c, chunks, err := p.Process(strings.NewReader(sampleDocument))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.Equal(t, c.Title, ch.CourseTitle)
		assert.Equal(t, i, ch.Index, "chunk indexes are sequential across lessons")
		require.NotNil(t, ch.LessonNumber)
		assert.Contains(t, ch.Content, "Course "+c.Title+" Lesson ")
	}

	// Lesson numbers follow document order.
	assert.Equal(t, 0, *chunks[0].LessonNumber)
	assert.Equal(t, 2, *chunks[len(chunks)-1].LessonNumber)
}

func TestProcessor_PreambleChunksHaveNoLesson(t *testing.T) {
	t.Parallel()

	doc := `Course Title: P
Course Link: https://x
Course Instructor: Y

Preamble text before lessons. It still gets indexed.

Lesson 1: First
Lesson one content goes here.
`
	p := NewProcessor(800, 100)
	_, chunks, err := p.Process(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Nil(t, chunks[0].LessonNumber)
	assert.Contains(t, chunks[0].Content, "Course P content:")
	require.NotNil(t, chunks[1].LessonNumber)
	assert.Contains(t, chunks[1].Content, "Course P Lesson 1 content:")
}

func TestNewProcessor_Defaults(t *testing.T) {
	t.Parallel()

	p := NewProcessor(0, -1)
	assert.Equal(t, 800, p.chunkSize)
	assert.Equal(t, 0, p.overlap)

	p = NewProcessor(100, 100)
	assert.Equal(t, 0, p.overlap, "overlap >= chunk size is rejected")
}
