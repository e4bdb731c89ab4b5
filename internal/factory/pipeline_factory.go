package factory

import (
	"github.com/janzheng/mailcheck/internal/adapters/academic"
	"github.com/janzheng/mailcheck/internal/adapters/groq"
	"github.com/janzheng/mailcheck/internal/config"
	"github.com/janzheng/mailcheck/internal/core"
	"github.com/janzheng/mailcheck/internal/rules"
	"go.uber.org/zap"
)

// PipelineFactory assembles the evaluation pipeline from configuration
type PipelineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPipelineFactory creates a new pipeline factory
func NewPipelineFactory(cfg *config.Config, logger *zap.Logger) *PipelineFactory {
	return &PipelineFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateChatClient creates the Groq chat client
func (f *PipelineFactory) CreateChatClient() core.ChatClient {
	return groq.NewGroqClient(
		f.cfg.GetString("groq.base_url"),
		f.cfg.GetString("groq.api_key"),
		f.logger,
	)
}

// CreatePipeline wires the pre-filters, both assessors and the judge
func (f *PipelineFactory) CreatePipeline(chat core.ChatClient) (*core.Pipeline, error) {
	lookup, err := academic.NewResolver(f.cfg.GetString("academic.institutions_file"), f.logger)
	if err != nil {
		return nil, err
	}

	temperature := float32(f.cfg.GetFloat64("groq.temperature"))
	compound := core.NewCompoundAssessor(chat, f.cfg.GetString("groq.compound_model"), temperature, f.logger)
	browser := core.NewBrowserAssessor(
		chat,
		f.cfg.GetString("groq.browser_model"),
		f.cfg.GetString("groq.convert_model"),
		temperature,
		f.logger,
	)
	judge := core.NewFinalJudge(chat, f.cfg.GetString("groq.judge_model"), temperature, f.logger)

	return core.NewPipeline(
		rules.NewMatcher(f.logger),
		lookup,
		compound,
		browser,
		judge,
		f.logger,
	), nil
}
