package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icdcheck/internal/agent"
	"icdcheck/internal/ontology"
	"icdcheck/internal/prompt"
	"icdcheck/internal/rag"
)

// scriptedClient replies from a queue, or via a handler when set.
type scriptedClient struct {
	replies []string
	handler func(prompt string) (string, error)
	calls   []string
}

func (s *scriptedClient) Complete(_ context.Context, req string) (string, error) {
	s.calls = append(s.calls, req)
	if s.handler != nil {
		return s.handler(req)
	}
	if len(s.replies) == 0 {
		return "", errors.New("script exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func testAgent(c agent.Client) *agent.Agent {
	return &agent.Agent{Name: "Test", Model: "test-model", Client: c}
}

func newPipeline(opts Options) *Pipeline {
	return New(prompt.Defaults(), opts, nil)
}

func TestValidateAllConfirmedFirstRound(t *testing.T) {
	client := &scriptedClient{replies: []string{"CONFIRMED", "Yes, confirmed."}}
	p := newPipeline(Options{})

	codes, ok, err := p.Validate(context.Background(), testAgent(client), []string{"E11.9", "I10"},
		ontology.DescribeAll([]string{"E11.9", "I10"}), "summary")
	require.NoError(t, err)

	assert.True(t, ok)
	assert.Equal(t, []string{"E11.9", "I10"}, codes)
	assert.Len(t, client.calls, 2)
}

func TestValidateConfirmationIsCaseInsensitive(t *testing.T) {
	client := &scriptedClient{replies: []string{"The code is confirmed."}}
	p := newPipeline(Options{})

	codes, ok, err := p.Validate(context.Background(), testAgent(client), []string{"I10"},
		map[string]string{}, "s")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"I10"}, codes)
}

func TestValidateRejectionTriggersAlternatives(t *testing.T) {
	client := &scriptedClient{replies: []string{
		"This code does not match; consider I63.9 instead.", // round 1: reject E11.9
		`{"finalCodes": ["I63.9"], "content": []}`,          // alternatives
		"CONFIRMED", // round 2: I63.9 confirmed
	}}
	p := newPipeline(Options{})

	codes, ok, err := p.Validate(context.Background(), testAgent(client), []string{"E11.9"},
		ontology.DescribeAll([]string{"E11.9"}), "summary")
	require.NoError(t, err)

	assert.True(t, ok)
	assert.Equal(t, []string{"I63.9"}, codes)
	// The alternative prompt carries the previous code list.
	assert.Contains(t, client.calls[1], "E11.9")
}

func TestValidateNoAlternativesKeepsConfirmed(t *testing.T) {
	client := &scriptedClient{replies: []string{
		"CONFIRMED",                       // E11.9 confirmed
		"I cannot verify this code.",      // I10 rejected
		"No alternative codes available.", // alternatives reply with no code shapes
	}}
	p := newPipeline(Options{})

	codes, ok, err := p.Validate(context.Background(), testAgent(client), []string{"E11.9", "I10"},
		map[string]string{}, "s")
	require.NoError(t, err)

	assert.True(t, ok)
	assert.Equal(t, []string{"E11.9"}, codes)
}

func TestValidateRetriesExhausted(t *testing.T) {
	// Every confirmation is rejected and every alternative round returns a
	// fresh code, so the loop runs to its bound.
	var confirmCalls int
	client := &scriptedClient{handler: func(req string) (string, error) {
		if strings.Contains(req, "refined recommendations") {
			return `{"finalCodes": ["I10"], "content": []}`, nil
		}
		confirmCalls++
		return "rejected", nil
	}}
	p := newPipeline(Options{ValidationRetries: 2})

	codes, ok, err := p.Validate(context.Background(), testAgent(client), []string{"E11.9"},
		map[string]string{}, "s")
	require.NoError(t, err)

	assert.False(t, ok)
	assert.Equal(t, []string{"I10"}, codes)
	assert.Equal(t, 2, confirmCalls)
}

func TestValidateCompletionErrorCountsAsRejection(t *testing.T) {
	first := true
	client := &scriptedClient{handler: func(req string) (string, error) {
		if strings.Contains(req, "refined recommendations") {
			return "nothing useful", nil
		}
		if first {
			first = false
			return "", errors.New("backend down")
		}
		return "CONFIRMED", nil
	}}
	p := newPipeline(Options{})

	codes, ok, err := p.Validate(context.Background(), testAgent(client), []string{"E11.9", "I10"},
		map[string]string{}, "s")
	require.NoError(t, err)

	// E11.9 failed, I10 confirmed, no alternatives came back.
	assert.True(t, ok)
	assert.Equal(t, []string{"I10"}, codes)
}

func TestValidateContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &scriptedClient{handler: func(string) (string, error) {
		cancel()
		return "", ctx.Err()
	}}
	p := newPipeline(Options{})

	_, _, err := p.Validate(ctx, testAgent(client), []string{"E11.9"}, map[string]string{}, "s")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreWellFormedFirstAttempt(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"score": 90, "evidence": ["documented diabetes", "on metformin"]}`}}
	p := newPipeline(Options{})

	score, evidence, err := p.Score(context.Background(), testAgent(client), "E11.9", "desc", "summary")
	require.NoError(t, err)

	assert.Equal(t, 90, score)
	assert.Equal(t, []string{"documented diabetes", "on metformin"}, evidence)
	assert.Len(t, client.calls, 1)
	assert.Contains(t, client.calls[0], "E11.9")
}

func TestScoreRetriesWithCorrectivePrompt(t *testing.T) {
	client := &scriptedClient{replies: []string{
		"I'd say about 80 out of 100.",
		`{"score": 80, "evidence": ["good match"]}`,
	}}
	p := newPipeline(Options{})

	score, _, err := p.Score(context.Background(), testAgent(client), "I10", "desc", "summary")
	require.NoError(t, err)

	assert.Equal(t, 80, score)
	require.Len(t, client.calls, 2)
	assert.Contains(t, client.calls[1], "did not follow the required JSON format")
}

func TestScoreExhaustionFallsBackToDefault(t *testing.T) {
	client := &scriptedClient{handler: func(string) (string, error) {
		return "never valid JSON", nil
	}}
	p := newPipeline(Options{ConfidenceRetries: 2, DefaultScore: 50})

	score, evidence, err := p.Score(context.Background(), testAgent(client), "I10", "desc", "summary")
	require.NoError(t, err)

	assert.Equal(t, 50, score)
	assert.Equal(t, []string{rag.DefaultEvidence}, evidence)
	assert.Len(t, client.calls, 3) // initial attempt plus two retries
}

func TestScoreAlwaysInRange(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"score": 250, "evidence": ["x"]}`, `{"score": -5, "evidence": ["x"]}`, "garbage"}}
	p := newPipeline(Options{ConfidenceRetries: 2})

	score, _, err := p.Score(context.Background(), testAgent(client), "I10", "d", "s")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0)
	assert.LessOrEqual(t, score, 100)
}

func TestProcessDocumentTruncatesAndScores(t *testing.T) {
	client := &scriptedClient{handler: func(req string) (string, error) {
		if strings.Contains(req, "confidence score") {
			return `{"score": 75, "evidence": ["matching treatment noted"]}`, nil
		}
		return "CONFIRMED", nil
	}}
	p := newPipeline(Options{MaxCodes: 2})

	doc := &rag.Document{
		Codes: []string{"E11.9", "I63.9", "I10"}, // third code dropped by the limit
		Entries: []rag.Entry{
			{Summary: "The patient has type 2 diabetes and a prior stroke documented on imaging."},
		},
	}

	res, err := p.ProcessDocument(context.Background(), testAgent(client), doc)
	require.NoError(t, err)

	require.Len(t, res.Codes, 2)
	assert.True(t, res.AllConfirmed)
	assert.Equal(t, "E11.9", res.Codes[0].Code)
	assert.Equal(t, "Type 2 diabetes mellitus without complications", res.Codes[0].Description)
	assert.Equal(t, 75, res.Codes[0].Score)
	assert.Equal(t, []string{"matching treatment noted"}, res.Codes[0].Evidence)
}

func TestProcessDocumentUnknownCodeGetsSentinelDescription(t *testing.T) {
	client := &scriptedClient{handler: func(req string) (string, error) {
		if strings.Contains(req, "confidence score") {
			return `{"score": 60, "evidence": ["e"]}`, nil
		}
		return "CONFIRMED", nil
	}}
	p := newPipeline(Options{})

	doc := &rag.Document{Codes: []string{"Z99.999"}}
	res, err := p.ProcessDocument(context.Background(), testAgent(client), doc)
	require.NoError(t, err)

	require.Len(t, res.Codes, 1)
	assert.Equal(t, ontology.NotFound, res.Codes[0].Description)
}

func TestRunSequential(t *testing.T) {
	client := &scriptedClient{handler: func(req string) (string, error) {
		if strings.Contains(req, "confidence score") {
			return `{"score": 55, "evidence": ["e"]}`, nil
		}
		return "CONFIRMED", nil
	}}
	p := newPipeline(Options{})

	docA := &rag.Document{ChartID: "a", Codes: []string{"I10"}}
	docB := &rag.Document{ChartID: "b", Codes: []string{"E11.9"}}
	agentA := &agent.Agent{Name: "A", Client: client}
	agentB := &agent.Agent{Name: "B", Client: client}

	results, err := p.Run(context.Background(), []Input{
		{Agent: agentA, Document: docA},
		{Agent: agentB, Document: docB},
	})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Agent)
	assert.Equal(t, "a", results[0].Document.ChartID)
	assert.Equal(t, "B", results[1].Agent)
	for _, r := range results {
		for _, c := range r.Codes {
			assert.GreaterOrEqual(t, c.Score, 0)
			assert.LessOrEqual(t, c.Score, 100)
			assert.NotEmpty(t, c.Evidence)
		}
	}
}

func TestRunEmptyCodeList(t *testing.T) {
	client := &scriptedClient{}
	p := newPipeline(Options{})

	res, err := p.ProcessDocument(context.Background(), testAgent(client), &rag.Document{})
	require.NoError(t, err)

	assert.True(t, res.AllConfirmed)
	assert.Empty(t, res.Codes)
	assert.Empty(t, client.calls)
}
