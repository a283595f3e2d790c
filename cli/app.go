package cli

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cora/agent"
	"cora/config"
	"cora/llm"
)

// App bundles the wired-up pieces the commands share.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *llm.Client
	env      *agent.LocalEnvironment
	emitter  *agent.EventEmitter
	input    *lineReader
	approver *TerminalApprover
	loop     *agent.Loop
	conv     *agent.Conversation
}

// newApp wires configuration into a ready main agent.
func newApp(cfg *config.Config) (*App, error) {
	logger, err := buildLogger(cfg)
	if err != nil {
		return nil, err
	}

	adapterOpts := []llm.GollmOption{
		llm.WithTemperature(cfg.Temperature),
		llm.WithMaxTokens(cfg.MaxTokens),
	}
	if cfg.Model != "" {
		adapterOpts = append(adapterOpts, llm.WithModel(cfg.Model))
	}
	adapter, err := llm.NewGollmAdapter(cfg.Provider, cfg.APIKey, adapterOpts...)
	if err != nil {
		return nil, fmt.Errorf("initializing %s backend: %w", cfg.Provider, err)
	}
	client := llm.NewClient(
		llm.WithProvider(cfg.Provider, adapter),
		llm.WithDefaultProvider(cfg.Provider),
	)

	env := agent.NewLocalEnvironment("")
	emitter := agent.NewEventEmitter(256)
	input := newLineReader(os.Stdin)
	approver := NewTerminalApprover(input, os.Stdout, cfg.AutoApprove)

	var searcher agent.Searcher
	if cfg.SearchAPIKey != "" {
		searcher = agent.NewExaSearcher(cfg.SearchAPIKey, cfg.SearchEndpoint)
	}

	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	agentCfg := agent.DefaultConfig()
	agentCfg.Provider = cfg.Provider
	agentCfg.Model = cfg.Model
	agentCfg.Temperature = &temperature
	agentCfg.MaxTokens = &maxTokens
	agentCfg.MaxIterations = cfg.MaxIterations
	agentCfg.SubagentMaxIterations = cfg.SubagentMaxIterations
	agentCfg.DefaultCommandTimeoutMs = cfg.CommandTimeoutMs
	agentCfg.MaxCommandTimeoutMs = cfg.MaxCommandTimeoutMs

	loop, err := agent.NewAgent(client, env, agentCfg, approver, searcher, logger, emitter)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		env:      env,
		emitter:  emitter,
		input:    input,
		approver: approver,
		loop:     loop,
		conv:     agent.NewConversation(),
	}, nil
}

// Close flushes the logger and shuts down the backend.
func (a *App) Close() {
	a.emitter.Close()
	_ = a.client.Close()
	_ = a.logger.Sync()
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if err := level.Set(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.LogFile != "" {
		zcfg.OutputPaths = []string{cfg.LogFile}
		zcfg.ErrorOutputPaths = []string{cfg.LogFile}
	} else {
		zcfg.OutputPaths = []string{"stderr"}
	}
	return zcfg.Build()
}
