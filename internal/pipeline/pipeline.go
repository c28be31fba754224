// Package pipeline implements the validate-retry-score loop: each candidate
// code is confirmed or rejected by an agent, rejections trigger a bulk
// alternative-suggestion round, and survivors receive a confidence score
// with bounded retries on malformed replies.
package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"icdcheck/internal/agent"
	"icdcheck/internal/extract"
	"icdcheck/internal/ontology"
	"icdcheck/internal/prompt"
	"icdcheck/internal/rag"
)

// Options bound the pipeline loops.
type Options struct {
	ValidationRetries int
	ConfidenceRetries int
	MaxCodes          int
	DefaultScore      int
}

// withDefaults fills zero fields with the stock bounds.
func (o Options) withDefaults() Options {
	if o.ValidationRetries == 0 {
		o.ValidationRetries = 3
	}
	if o.ConfidenceRetries == 0 {
		o.ConfidenceRetries = 2
	}
	if o.MaxCodes == 0 {
		o.MaxCodes = 5
	}
	if o.DefaultScore == 0 {
		o.DefaultScore = 50
	}
	return o
}

// CodeResult is one scored code in the final output.
type CodeResult struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Score       int      `json:"confidence_score"`
	Evidence    []string `json:"evidence"`
}

// Result is the outcome of running one document through one agent.
type Result struct {
	Agent        string
	Document     *rag.Document
	Codes        []CodeResult
	AllConfirmed bool
}

// Pipeline drives the validation and confidence loops for a set of agents.
type Pipeline struct {
	templates prompt.Templates
	opts      Options
	log       *zap.Logger
}

// New creates a pipeline. A nil logger disables logging.
func New(templates prompt.Templates, opts Options, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{templates: templates, opts: opts.withDefaults(), log: log}
}

// Validate runs the bounded confirmation loop over the candidate codes.
// Each round confirms codes individually, then asks for alternatives in
// bulk for the rejects. It returns the surviving code list and whether
// every code was confirmed within the retry budget. Input order is kept
// and codes are not deduplicated.
func (p *Pipeline) Validate(ctx context.Context, ag *agent.Agent, codes []string, descriptions map[string]string, summary string) ([]string, bool, error) {
	validated := append([]string(nil), codes...)
	p.log.Info("validation started", zap.String("agent", ag.Name), zap.Int("codes", len(validated)))

	for round := 0; round < p.opts.ValidationRetries; round++ {
		var confirmed, rejected []string
		for _, code := range validated {
			desc, ok := descriptions[code]
			if !ok {
				desc = ontology.NotFound
			}
			reply, err := ag.Client.Complete(ctx, p.templates.RenderValidation(code, desc, summary))
			if err != nil {
				if ctx.Err() != nil {
					return validated, false, ctx.Err()
				}
				// A failed call counts as a rejection; the alternative
				// round gets a chance to replace the code.
				p.log.Warn("validation call failed", zap.String("agent", ag.Name), zap.String("code", code), zap.Error(err))
				rejected = append(rejected, code)
				continue
			}
			if strings.Contains(strings.ToUpper(reply), "CONFIRMED") {
				p.log.Info("code confirmed", zap.String("agent", ag.Name), zap.String("code", code))
				confirmed = append(confirmed, code)
			} else {
				p.log.Info("code rejected", zap.String("agent", ag.Name), zap.String("code", code))
				rejected = append(rejected, code)
			}
		}

		if len(rejected) == 0 {
			p.log.Info("all codes confirmed", zap.String("agent", ag.Name))
			return confirmed, true, nil
		}

		reply, err := ag.Client.Complete(ctx, p.templates.RenderAlternative(validated, summary))
		if err != nil {
			if ctx.Err() != nil {
				return confirmed, false, ctx.Err()
			}
			p.log.Warn("alternative call failed", zap.String("agent", ag.Name), zap.Error(err))
			return confirmed, true, nil
		}

		newCodes := extract.Codes(reply)
		if len(newCodes) == 0 {
			p.log.Info("no alternatives suggested, keeping confirmed codes", zap.String("agent", ag.Name))
			return confirmed, true, nil
		}

		p.log.Info("alternatives suggested", zap.String("agent", ag.Name), zap.Strings("codes", newCodes))
		validated = newCodes
		descriptions = ontology.DescribeAll(validated)
	}

	p.log.Warn("validation retries exhausted", zap.String("agent", ag.Name), zap.Strings("codes", validated))
	return validated, false, nil
}

// Score runs the bounded confidence loop for a single code. The first
// attempt uses the scoring template; later attempts switch to the
// corrective reprompt. Exhaustion yields the default score and evidence.
func (p *Pipeline) Score(ctx context.Context, ag *agent.Agent, code, description, summary string) (int, []string, error) {
	defaultEvidence := []string{rag.DefaultEvidence}

	for attempt := 0; attempt <= p.opts.ConfidenceRetries; attempt++ {
		var req string
		if attempt == 0 {
			req = p.templates.RenderConfidence(code, description, summary)
		} else {
			req = p.templates.Corrective
		}

		reply, err := ag.Client.Complete(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return p.opts.DefaultScore, defaultEvidence, ctx.Err()
			}
			p.log.Warn("confidence call failed", zap.String("agent", ag.Name), zap.String("code", code), zap.Error(err))
			continue
		}

		score, evidence, err := extract.Confidence(reply, p.opts.DefaultScore, defaultEvidence)
		if err != nil {
			p.log.Debug("confidence reply rejected", zap.String("agent", ag.Name), zap.String("code", code), zap.Error(err))
			continue
		}
		return score, evidence, nil
	}

	p.log.Warn("confidence retries exhausted, using default score",
		zap.String("agent", ag.Name), zap.String("code", code), zap.Int("score", p.opts.DefaultScore))
	return p.opts.DefaultScore, defaultEvidence, nil
}

// ProcessDocument runs the full pipeline for one document: truncate to the
// top candidate codes, validate, then score each survivor.
func (p *Pipeline) ProcessDocument(ctx context.Context, ag *agent.Agent, doc *rag.Document) (*Result, error) {
	initial := truncate(doc.Codes, p.opts.MaxCodes)
	summary := doc.JointSummary()
	descriptions := ontology.DescribeAll(initial)

	validated, allConfirmed, err := p.Validate(ctx, ag, initial, descriptions, summary)
	if err != nil {
		return nil, err
	}

	final := truncate(validated, p.opts.MaxCodes)
	results := make([]CodeResult, 0, len(final))
	for _, code := range final {
		desc := ontology.Describe(code)
		score, evidence, err := p.Score(ctx, ag, code, desc, summary)
		if err != nil {
			return nil, err
		}
		results = append(results, CodeResult{
			Code:        code,
			Description: desc,
			Score:       score,
			Evidence:    evidence,
		})
	}

	return &Result{
		Agent:        ag.Name,
		Document:     doc,
		Codes:        results,
		AllConfirmed: allConfirmed,
	}, nil
}

// Input pairs an agent with the document it should process.
type Input struct {
	Agent    *agent.Agent
	Document *rag.Document
}

// Run processes each input sequentially, one agent after another.
func (p *Pipeline) Run(ctx context.Context, inputs []Input) ([]*Result, error) {
	results := make([]*Result, 0, len(inputs))
	for _, in := range inputs {
		p.log.Info("processing document", zap.String("agent", in.Agent.Name), zap.String("chart_id", in.Document.ChartID))
		res, err := p.ProcessDocument(ctx, in.Agent, in.Document)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func truncate(codes []string, n int) []string {
	if len(codes) > n {
		return codes[:n]
	}
	return codes
}
