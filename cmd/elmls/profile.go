package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"elmls/internal/observ"
	"elmls/internal/prof"
)

// setupProfiling starts the profilers requested by the persistent flags. The
// returned cleanup is safe to call multiple times.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()
	var paths prof.Paths
	for name, dst := range map[string]*string{
		"cpu-profile":   &paths.CPU,
		"mem-profile":   &paths.Mem,
		"runtime-trace": &paths.Trace,
	} {
		v, err := root.PersistentFlags().GetString(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
	}
	if paths == (prof.Paths{}) {
		return func() {}, nil
	}
	session, err := prof.Start(paths)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profiling: %v\n", err)
		}
	}, nil
}

// phaseTimer returns a timer when --timings is set. A nil timer records
// nothing.
func phaseTimer(cmd *cobra.Command) (*observ.Timer, error) {
	show, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if !show {
		return nil, nil
	}
	return observ.NewTimer(), nil
}

func printTimings(cmd *cobra.Command, timer *observ.Timer) {
	if timer == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
}
