// Package opt implements the optimization passes over the IR and the
// pipeline driving them.
package opt

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"cinder/internal/ir"
	"cinder/internal/observ"
)

// FunctionPass transforms a single function body and reports whether the
// instruction graph changed, so the driver can invalidate anything cached
// over the instruction list or the def-use graph.
type FunctionPass interface {
	Name() string
	Run(f *ir.Func) bool
}

// Config carries optimizer tuning knobs.
type Config struct {
	// MaxArgCombinations caps how many phi argument pairs redundant-phi
	// elimination examines per block.
	MaxArgCombinations int
	// MaxEqualityChecks caps how many value pairs a single structural
	// equality query may expand.
	MaxEqualityChecks int
	// Verify runs the IR verifier after each pass over each function.
	Verify bool
	// Jobs bounds how many functions are optimized concurrently.
	// Zero means one worker per CPU.
	Jobs int
}

// DefaultConfig returns the tuned defaults. The numeric bounds are cost
// heuristics; retuning them keeps the bounded-work guarantee as long as
// they stay constant per run.
func DefaultConfig() Config {
	return Config{
		MaxArgCombinations: 48,
		MaxEqualityChecks:  16,
	}
}

func (c Config) jobs() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.NumCPU()
}

// Stats aggregates a pipeline run.
type Stats struct {
	FuncsVisited int
	FuncsSkipped int
	// ChangedByPass counts, per pass name, the functions it changed.
	ChangedByPass map[string]int
	Timings       observ.Report
}

// Changed reports whether any pass changed any function.
func (s Stats) Changed() bool {
	for _, n := range s.ChangedByPass {
		if n > 0 {
			return true
		}
	}
	return false
}

// Pipeline runs an ordered pass list over every function of a module.
// Functions are processed concurrently; a single function body is only
// ever touched by one goroutine at a time.
type Pipeline struct {
	cfg    Config
	passes []FunctionPass
}

// NewPipeline builds a pipeline over the given passes.
func NewPipeline(cfg Config, passes ...FunctionPass) *Pipeline {
	return &Pipeline{cfg: cfg, passes: passes}
}

// DefaultPasses returns the standard phi optimization sequence.
func DefaultPasses(cfg Config) []FunctionPass {
	return []FunctionPass{
		NewRedundantPhiElimination(cfg),
		NewPhiExpansion(),
	}
}

// Run executes the pipeline and returns aggregate statistics.
func (p *Pipeline) Run(m *ir.Module) (Stats, error) {
	stats := Stats{ChangedByPass: make(map[string]int, len(p.passes))}
	timer := observ.NewTimer()
	var mu sync.Mutex

	phase := timer.Begin("pipeline")
	var g errgroup.Group
	g.SetLimit(p.cfg.jobs())
	for _, f := range m.Funcs() {
		if !f.ShouldOptimize() {
			stats.FuncsSkipped++
			continue
		}
		stats.FuncsVisited++
		f := f
		g.Go(func() error {
			changed := make(map[string]bool, len(p.passes))
			for _, pass := range p.passes {
				if pass.Run(f) {
					changed[pass.Name()] = true
				}
				if p.cfg.Verify {
					if err := ir.VerifyFunc(f); err != nil {
						return fmt.Errorf("after %s on %s: %w", pass.Name(), f.Name, err)
					}
				}
			}
			mu.Lock()
			for name := range changed {
				stats.ChangedByPass[name]++
			}
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	timer.End(phase, fmt.Sprintf("%d functions", stats.FuncsVisited))
	stats.Timings = timer.Report()
	return stats, err
}
