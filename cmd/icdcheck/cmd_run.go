package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"icdcheck/internal/agent"
	"icdcheck/internal/config"
	"icdcheck/internal/pipeline"
	"icdcheck/internal/prompt"
	"icdcheck/internal/rag"
	"icdcheck/internal/schema"
	"icdcheck/internal/store"
)

var (
	runOutput    string
	exportOutput string
)

// runCmd validates and scores documents, printing raw per-agent results
var runCmd = &cobra.Command{
	Use:   "run [documents...]",
	Short: "Validate and score documents through the agent panel",
	Long: `Runs each retrieval output document through the configured agents.

When document paths are given, every agent processes every document.
Without arguments, each agent processes the document named by its own
"input" field in the configuration.

Results are printed as a JSON object keyed by agent name and, when a
store path is configured, persisted to the run history database.`,
	RunE: runDocuments,
}

// exportCmd runs the panel and writes results in the submission schema
var exportCmd = &cobra.Command{
	Use:   "export [documents...]",
	Short: "Run the panel and export results in the submission schema",
	Long: `Identical to run, but the scored codes are reshaped into the
downstream submission schema. Evidence on each code is replaced with
substantive sentences drawn from the chart summary itself.`,
	RunE: exportDocuments,
}

func init() {
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write results to this file instead of stdout")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", schema.DefaultFilename, "Submission schema output file")
}

// panel bundles the components every processing command needs.
type panel struct {
	cfg      *config.Config
	agents   []*agent.Agent
	pipeline *pipeline.Pipeline
	store    *store.Store
}

// newPanel loads configuration and builds the agents and pipeline.
func newPanel() (*panel, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	templates := prompt.Defaults()
	if cfg.PromptOverrides != "" {
		if err := templates.LoadOverrides(cfg.PromptOverrides); err != nil {
			return nil, err
		}
	}

	agents, err := agent.NewAll(cfg.Agents)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		ValidationRetries: cfg.ValidationRetries,
		ConfidenceRetries: cfg.ConfidenceRetries,
		MaxCodes:          cfg.MaxCodes,
		DefaultScore:      cfg.DefaultScore,
	}

	p := &panel{
		cfg:      cfg,
		agents:   agents,
		pipeline: pipeline.New(templates, opts, logger),
	}
	if cfg.StorePath != "" {
		p.store, err = store.New(cfg.StorePath)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *panel) close() {
	if p.store != nil {
		_ = p.store.Close()
	}
}

// inputs pairs agents with documents. Explicit paths fan out to every
// agent; otherwise each agent reads its configured input file.
func (p *panel) inputs(paths []string) ([]pipeline.Input, error) {
	var inputs []pipeline.Input
	if len(paths) > 0 {
		for _, path := range paths {
			doc, err := rag.DecodeFile(path)
			if err != nil {
				return nil, err
			}
			for _, ag := range p.agents {
				inputs = append(inputs, pipeline.Input{Agent: ag, Document: doc})
			}
		}
		return inputs, nil
	}
	for i, ag := range p.agents {
		in := p.cfg.Agents[i].Input
		if in == "" {
			return nil, fmt.Errorf("agent %s has no input file and no documents were given", ag.Name)
		}
		doc, err := rag.DecodeFile(in)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, pipeline.Input{Agent: ag, Document: doc})
	}
	return inputs, nil
}

// process runs the pipeline over the inputs and persists each result.
func (p *panel) process(ctx context.Context, paths []string) ([]*pipeline.Result, error) {
	inputs, err := p.inputs(paths)
	if err != nil {
		return nil, err
	}
	startedAt := time.Now()
	results, err := p.pipeline.Run(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if p.store != nil {
		for _, res := range results {
			id, err := p.store.SaveRun(res, startedAt, time.Now())
			if err != nil {
				logger.Warn("failed to persist run", zap.String("agent", res.Agent), zap.Error(err))
				continue
			}
			logger.Debug("run persisted", zap.String("id", id), zap.String("agent", res.Agent))
		}
	}
	return results, nil
}

// signalContext returns a context cancelled by the timeout or SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func runDocuments(cmd *cobra.Command, args []string) error {
	p, err := newPanel()
	if err != nil {
		return err
	}
	defer p.close()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := p.process(ctx, args)
	if err != nil {
		return err
	}

	byAgent := make(map[string][]pipeline.CodeResult)
	for _, res := range results {
		byAgent[res.Agent] = append(byAgent[res.Agent], res.Codes...)
	}
	return writeJSON(runOutput, byAgent)
}

func exportDocuments(cmd *cobra.Command, args []string) error {
	p, err := newPanel()
	if err != nil {
		return err
	}
	defer p.close()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := p.process(ctx, args)
	if err != nil {
		return err
	}

	// The submission schema carries chart-derived evidence, not the
	// model's own quotes.
	byAgent := make(map[string][]pipeline.CodeResult)
	for _, res := range results {
		evidence := res.Document.Evidence()
		for _, code := range res.Codes {
			code.Evidence = evidence
			byAgent[res.Agent] = append(byAgent[res.Agent], code)
		}
	}

	out := schema.Convert(byAgent)
	if err := schema.Write(exportOutput, out); err != nil {
		return err
	}
	logger.Info("submission schema written", zap.String("path", exportOutput))
	return nil
}
