package diffcov

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// State is a step of a single controller run.
type State int

// Run states, in the order a full run passes through them.
const (
	StateStart State = iota
	StateDefaultsApplied
	StateSkipped
	StateScopeComputed
	StateConfigurationInjected
	StateDelegated
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateDefaultsApplied:
		return "defaults-applied"
	case StateSkipped:
		return "skipped"
	case StateScopeComputed:
		return "scope-computed"
	case StateConfigurationInjected:
		return "configuration-injected"
	case StateDelegated:
		return "delegated"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Result describes how a run ended.
type Result struct {
	States []State // Every state entered, ending with StateDone
	Scope  Scope   // Zero when the run was skipped before computing a scope
}

// Last returns the final state entered before StateDone.
func (r Result) Last() State {
	if len(r.States) < 2 {
		return StateStart
	}
	return r.States[len(r.States)-2]
}

// Injected reports whether the generator reached its pre-report hook. A
// delegated run without it ended inside the generator before any report was
// built, e.g. for lack of execution data.
func (r Result) Injected() bool {
	for _, s := range r.States {
		if s == StateConfigurationInjected {
			return true
		}
	}
	return false
}

// Controller scopes a coverage report to the files changed against Baseline
// and drives the report generator with that scope.
type Controller struct {
	Provider    ChangeSetProvider
	Mapper      *Mapper
	Baseline    string
	BaseDir     string   // Project base directory; relative SourceRoots resolve against it
	SourceRoots []string // Compile source roots, relative or absolute
	WorkDir     string   // Directory the diff ran in; defaults to the process working directory
	Defaults    Defaults
	Excludes    []string
	Policy      Policy
	Logger      *zap.Logger
}

func (c *Controller) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Controller) mapper() *Mapper {
	if c.Mapper == nil {
		return NewMapper()
	}
	return c.Mapper
}

// ComputeScope lists the changed files and maps them to include patterns.
func (c *Controller) ComputeScope(ctx context.Context) (Scope, error) {
	workDir := c.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Scope{}, &ScopeComputationError{Baseline: c.Baseline, Err: errors.Wrap(err, "resolving working directory")}
		}
		workDir = wd
	}
	baseDir := c.BaseDir
	if baseDir == "" {
		baseDir = workDir
	}

	changed, err := c.Provider.ChangedFiles(ctx, c.Baseline)
	if err != nil {
		return Scope{}, &ScopeComputationError{Baseline: c.Baseline, Err: err}
	}

	roots := ResolveRoots(baseDir, c.SourceRoots)
	includes := c.mapper().MapToIncludePatterns(changed, roots, workDir)
	c.logger().Debug("computed report scope",
		zap.String("baseline", c.Baseline),
		zap.Int("changed", len(changed)),
		zap.Strings("roots", roots),
		zap.Strings("includes", includes),
	)
	return Scope{Includes: includes, Excludes: c.Excludes}, nil
}

// ShouldGenerate reports whether a report should be built for scope.
// It is false only when policy skips unchanged projects and scope holds
// nothing but the sentinel pattern.
func ShouldGenerate(scope Scope, policy Policy) bool {
	if policy.SkipWhenNoChanges && scope.Empty() {
		return false
	}
	return true
}

// Decide computes the scope and decides whether to generate a report. A
// scope failure always yields false. The failure is returned when policy
// asks for change-aware skipping and logged otherwise.
func (c *Controller) Decide(ctx context.Context, policy Policy) (Scope, bool, error) {
	scope, err := c.ComputeScope(ctx)
	if err != nil {
		if policy.SkipWhenNoChanges {
			return Scope{}, false, err
		}
		c.logger().Warn("report scope unavailable, not generating", zap.Error(err))
		return Scope{}, false, nil
	}
	return scope, ShouldGenerate(scope, policy), nil
}

// ApplyDefaults injects the static settings into generator. It is
// idempotent and safe to call before and inside the generator's lifecycle.
func (c *Controller) ApplyDefaults(generator any) error {
	fields := []struct {
		name  string
		value any
	}{
		{FieldOutputDirectory, c.Defaults.OutputDirectory},
		{FieldDataFile, c.Defaults.DataFile},
		{FieldOutputEncoding, c.Defaults.OutputEncoding},
		{FieldSourceEncoding, c.Defaults.SourceEncoding},
		{FieldSkip, c.Defaults.Skip},
	}
	for _, f := range fields {
		if err := Inject(generator, f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// ApplyScope injects the include and exclude patterns into generator.
func (c *Controller) ApplyScope(generator any, scope Scope) error {
	if err := Inject(generator, FieldIncludes, scope.Includes); err != nil {
		return err
	}
	return Inject(generator, FieldExcludes, scope.Excludes)
}

// Run performs one full run against generator: defaults, skip check, scope
// computation, the no-changes policy, then delegation to the generator with
// the scope injected right before it builds the report. Errors returned by
// the generator are passed through unchanged.
func (c *Controller) Run(ctx context.Context, generator ReportGenerator) (Result, error) {
	log := c.logger()
	res := Result{States: []State{StateStart}}
	enter := func(s State) {
		res.States = append(res.States, s)
		log.Debug("controller state", zap.Stringer("state", s))
	}

	if err := c.ApplyDefaults(generator); err != nil {
		return res, err
	}
	enter(StateDefaultsApplied)

	if c.Defaults.Skip {
		log.Info("skipping coverage report because skip is set")
		enter(StateSkipped)
		enter(StateDone)
		return res, nil
	}

	scope, err := c.ComputeScope(ctx)
	if err != nil {
		return res, err
	}
	res.Scope = scope
	enter(StateScopeComputed)

	if !ShouldGenerate(scope, c.Policy) {
		log.Info("skipping coverage report because no source files changed",
			zap.String("baseline", c.Baseline))
		enter(StateSkipped)
		enter(StateDone)
		return res, nil
	}

	err = generator.Execute(ctx, func(context.Context) error {
		if err := c.ApplyDefaults(generator); err != nil {
			return err
		}
		if err := c.ApplyScope(generator, scope); err != nil {
			return err
		}
		enter(StateConfigurationInjected)
		return nil
	})
	if err != nil {
		return res, err
	}
	enter(StateDelegated)
	enter(StateDone)
	return res, nil
}
