// Package platform dispatches a completed build to the patch sequence
// of its target platform.
package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/patch"
	"github.com/moasq/appcenter-postbuild/internal/terminal"
)

// Strategy applies one platform's patch steps to a build output.
type Strategy interface {
	Apply(ctx context.Context, outputPath string, flags config.FeatureFlags, steps *Steps)
}

// Orchestrator selects the Strategy registered for a build target.
type Orchestrator struct {
	mu         sync.RWMutex
	log        terminal.Logger
	strategies map[BuildTarget]Strategy
}

// NewOrchestrator creates an orchestrator with no strategies registered.
func NewOrchestrator(log terminal.Logger) *Orchestrator {
	return &Orchestrator{
		log:        log,
		strategies: make(map[BuildTarget]Strategy),
	}
}

// Register binds s to target, replacing any previous strategy.
func (o *Orchestrator) Register(target BuildTarget, s Strategy) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.strategies[target] = s
}

// Targets returns the targets with a registered strategy.
func (o *Orchestrator) Targets() []BuildTarget {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]BuildTarget, 0, len(o.strategies))
	for t := range o.strategies {
		out = append(out, t)
	}
	return out
}

// Run patches one build output. Unregistered targets are a no-op.
// Failures are only logged; Run never panics past its boundary.
func (o *Orchestrator) Run(ctx context.Context, out BuildOutput, flags config.FeatureFlags) {
	o.mu.RLock()
	s, ok := o.strategies[out.Target]
	o.mu.RUnlock()
	if !ok {
		o.log.Info(fmt.Sprintf("No post-build steps for target %q", out.Target))
		return
	}

	steps := &Steps{log: o.log}
	defer func() {
		if p := recover(); p != nil {
			o.log.Error(fmt.Sprintf("Post-build for %s aborted: %v", out.Target, p))
		}
	}()
	s.Apply(ctx, out.OutputPath, flags, steps)
}

// Steps runs independent patch steps, logging each outcome.
type Steps struct {
	log terminal.Logger
}

// NewSteps returns a step runner logging to log.
func NewSteps(log terminal.Logger) *Steps {
	return &Steps{log: log}
}

// Do runs fn as the step called name and returns its error so callers
// can skip dependent steps. Panics are converted to errors.
func (s *Steps) Do(name string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic: %v", name, p)
			s.log.Error(err.Error())
		}
	}()

	err = fn()
	s.report(name, err)
	return err
}

// Log exposes the runner's logger to strategies.
func (s *Steps) Log() terminal.Logger {
	return s.log
}

func (s *Steps) report(name string, err error) {
	switch {
	case err == nil:
		s.log.Success(name)
	case errors.Is(err, patch.ErrCollaboratorUnavailable):
		// Expected configuration variance.
	case errors.Is(err, patch.ErrNotFound),
		errors.Is(err, patch.ErrAmbiguous),
		errors.Is(err, patch.ErrUnsupportedEntry):
		s.log.Warning(fmt.Sprintf("%s skipped: %v", name, err))
	default:
		s.log.Error(fmt.Sprintf("%s failed: %v", name, err))
	}
}
