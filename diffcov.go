// Package diffcov narrows coverage reports to the files changed against a
// baseline branch.
package diffcov

import "context"

// SentinelPattern is the include pattern used when no changed file maps to an
// artifact. Report generators treat an empty include list as "include
// everything", so a present but unmatchable pattern scopes the report to
// nothing instead.
const SentinelPattern = ""

// Default suffixes for Java sources and their compiled classes. The artifact
// suffix is a wildcard because one source file compiles to a class per
// top-level and nested type.
const (
	DefaultSourceSuffix   = ".java"
	DefaultArtifactSuffix = "*.class"
)

// Fixed identity of the report handed to the generator.
const (
	ReportOutputName = "jacoco-changes/index"
	ReportTitle      = "JaCoCo Changes Test"
)

// ChangeSetProvider lists files that differ from a baseline reference.
type ChangeSetProvider interface {
	// ChangedFiles returns the changed paths as reported by the VCS,
	// relative to the directory the diff ran in.
	ChangedFiles(ctx context.Context, baseline string) ([]string, error)
}

// ReportGenerator is the externally owned component that renders a coverage
// report. Its configuration is overridden by name through Inject before
// Execute runs; the controller never calls setters on it.
type ReportGenerator interface {
	// Execute runs the generator's top-level lifecycle. The generator calls
	// beforeReport immediately before building the report and aborts if it
	// returns an error.
	Execute(ctx context.Context, beforeReport func(context.Context) error) error
}

// Scope is the resolved set of include patterns plus the pass-through
// exclude list.
type Scope struct {
	Includes []string
	Excludes []string
}

// Empty reports whether the scope holds only the sentinel pattern, meaning no
// changed file mapped to an artifact.
func (s Scope) Empty() bool {
	for _, p := range s.Includes {
		if p != SentinelPattern {
			return false
		}
	}
	return true
}

// Policy controls whether a report is generated.
type Policy struct {
	SkipWhenNoChanges bool
}

// Defaults are the static generator settings applied on every run.
type Defaults struct {
	OutputDirectory string
	DataFile        string
	OutputEncoding  string
	SourceEncoding  string
	Skip            bool
}

// Generator field names overridden by the controller.
const (
	FieldOutputDirectory = "OutputDirectory"
	FieldDataFile        = "DataFile"
	FieldOutputEncoding  = "OutputEncoding"
	FieldSourceEncoding  = "SourceEncoding"
	FieldSkip            = "Skip"
	FieldIncludes        = "Includes"
	FieldExcludes        = "Excludes"
)
