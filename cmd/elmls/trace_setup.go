package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"elmls/internal/config"
	"elmls/internal/trace"
)

// setupTracing builds the tracer from --trace/--trace-output, falling back to
// the [trace] section of cfg, and attaches it to the command context. The
// returned cleanup flushes and closes the output.
func setupTracing(cmd *cobra.Command, cfg *config.Config) (*trace.StreamTracer, func(), error) {
	flags := cmd.Root().PersistentFlags()
	levelStr, err := flags.GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	output, err := flags.GetString("trace-output")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-output flag: %w", err)
	}

	level := trace.LevelOff
	if cfg != nil {
		level = cfg.TraceLevel()
		if output == "" {
			output = cfg.Trace.Output
		}
	}
	if levelStr != "" {
		if level, err = trace.ParseLevel(levelStr); err != nil {
			return nil, nil, fmt.Errorf("invalid trace level: %w", err)
		}
	}

	tracer, err := trace.NewStream(trace.Config{Level: level, OutputPath: output})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}
