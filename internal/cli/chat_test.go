package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/adapter/search"
	"docrag/internal/domain"
	"docrag/internal/usecase"
)

type echoGenerator struct {
	prompts []string
}

func (g *echoGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return "answer", nil
}

func (g *echoGenerator) GenerateStream(_ context.Context, prompt string, onDelta func(string) error) error {
	g.prompts = append(g.prompts, prompt)
	return onDelta("streamed answer")
}

func (g *echoGenerator) ModelName() string { return "echo" }

func newTestSession(t *testing.T, stream bool) (*chatSession, *echoGenerator, *bytes.Buffer) {
	t.Helper()
	docs := []domain.Document{
		{ID: "r", Title: "persistence", Category: "Redis", Source: "/kb/redis/persistence.md", Content: "# RDB\n\nsnapshots\n\n# AOF\n\nappend only\n"},
		{ID: "m", Title: "index", Category: "MySQL", Source: "/kb/mysql/index.md", Content: "# Index\n\nb+ tree snapshots\n"},
		{ID: "k", Title: "kafka", Category: "Message Queues", Source: "/kb/mq/kafka.md", Content: "# Kafka\n\npartition snapshots\n"},
	}
	chunks := []domain.Chunk{
		{ChunkID: "r0", ParentID: "r", Category: "Redis", Title: "persistence", Content: "# RDB\n\nsnapshots\n\n"},
		{ChunkID: "r1", ParentID: "r", Category: "Redis", Title: "persistence", Content: "# AOF\n\nappend only\n"},
		{ChunkID: "m0", ParentID: "m", Category: "MySQL", Title: "index", Content: "# Index\n\nb+ tree snapshots\n"},
		{ChunkID: "k0", ParentID: "k", Category: "Message Queues", Title: "kafka", Content: "# Kafka\n\npartition snapshots\n"},
	}

	idx, err := search.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	staged, err := idx.Stage(chunks)
	require.NoError(t, err)
	require.NoError(t, staged.Commit())

	gen := &echoGenerator{}
	out := &bytes.Buffer{}
	stats := usecase.Report(docs, chunks)
	return &chatSession{
		answers: usecase.NewAnswerUseCase(idx, gen, docs, 5, 4000, nil),
		stats:   stats,
		labels:  chatLabels([]string{"Message", "Redis"}, stats),
		stream:  stream,
		out:     out,
	}, gen, out
}

func TestChatAnswersQuestions(t *testing.T) {
	s, gen, out := newTestSession(t, false)

	err := s.run(context.Background(), strings.NewReader("append only\nquit\n"))
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "append only")
	assert.Contains(t, out.String(), "answer")
	assert.Contains(t, out.String(), "[1] persistence (Redis, relevance 1)")
}

func TestChatCategoryCommand(t *testing.T) {
	s, gen, out := newTestSession(t, true)

	err := s.run(context.Background(), strings.NewReader("category MySQL snapshots\n"))
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Category: MySQL")
	assert.NotContains(t, gen.prompts[0], "Category: Redis")
	assert.Contains(t, out.String(), "streamed answer")
}

func TestChatBuiltinCommands(t *testing.T) {
	s, gen, out := newTestSession(t, false)

	err := s.run(context.Background(), strings.NewReader("\nhelp\nstats\ncategory Redis\nexit\nnever read\n"))
	require.NoError(t, err)

	assert.Empty(t, gen.prompts)
	assert.Contains(t, out.String(), "Documents:       3")
	assert.Contains(t, out.String(), "Message Queues")
	assert.Contains(t, out.String(), "usage: category <label> <question>")
}

func TestChatCategoryCommandWithMultiWordLabel(t *testing.T) {
	s, gen, _ := newTestSession(t, false)

	err := s.run(context.Background(), strings.NewReader("category message queues snapshots\n"))
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Category: Message Queues")
	assert.NotContains(t, gen.prompts[0], "Category: MySQL")
	assert.NotContains(t, gen.prompts[0], "Category: Redis")
}

func TestSplitCategory(t *testing.T) {
	labels := []string{"Java", "Java Basics", "System Design", "Redis"}

	tests := []struct {
		name     string
		rest     string
		label    string
		question string
		ok       bool
	}{
		{"single word", "Redis what is AOF", "Redis", "what is AOF", true},
		{"longest label wins", "Java Basics primitive types", "Java Basics", "primitive types", true},
		{"shorter label when longer does not fit", "Java generics", "Java", "generics", true},
		{"case insensitive", "system design rate limiting", "System Design", "rate limiting", true},
		{"unknown label ends at first space", "Golang channels", "Golang", "channels", true},
		{"label without question", "Redis", "", "", false},
		{"empty", "  ", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, question, ok := splitCategory(tt.rest, labels)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.question, question)
		})
	}
}
