package diffcov

import (
	"path/filepath"
	"strings"
)

// ResolveRoots returns the absolute form of each configured source root.
// Relative roots are joined to baseDir; absolute roots are cleaned and kept.
// Roots are not checked for existence: a missing root never matches.
func ResolveRoots(baseDir string, roots []string) []string {
	result := make([]string, 0, len(roots))
	for _, root := range roots {
		if filepath.IsAbs(root) {
			result = append(result, filepath.Clean(root))
			continue
		}
		result = append(result, filepath.Join(baseDir, root))
	}
	return result
}

// Mapper converts changed source paths into artifact include patterns.
type Mapper struct {
	SourceSuffix   string // Defaults to DefaultSourceSuffix
	ArtifactSuffix string // Defaults to DefaultArtifactSuffix
}

// NewMapper creates a Mapper for Java sources and classes.
func NewMapper() *Mapper {
	return &Mapper{
		SourceSuffix:   DefaultSourceSuffix,
		ArtifactSuffix: DefaultArtifactSuffix,
	}
}

// MapToIncludePatterns returns one include pattern per (changed file,
// matching root) pair. Changed paths are resolved against cwd because the
// diff tool reports them relative to where it ran, which need not be the
// project base directory. A file nested under several roots yields one
// pattern per root.
//
// When nothing maps, the result is a single SentinelPattern rather than an
// empty slice.
func (m *Mapper) MapToIncludePatterns(changed []string, roots []string, cwd string) []string {
	sourceSuffix := m.SourceSuffix
	if sourceSuffix == "" {
		sourceSuffix = DefaultSourceSuffix
	}
	artifactSuffix := m.ArtifactSuffix
	if artifactSuffix == "" {
		artifactSuffix = DefaultArtifactSuffix
	}

	var result []string
	for _, file := range changed {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		path = filepath.Clean(path)
		if !strings.HasSuffix(filepath.Base(path), sourceSuffix) {
			continue
		}
		for _, root := range roots {
			rel, ok := subPath(root, path)
			if !ok {
				continue
			}
			result = append(result, strings.TrimSuffix(rel, sourceSuffix)+artifactSuffix)
		}
	}

	if len(result) == 0 {
		return []string{SentinelPattern}
	}
	return result
}

// subPath returns path relative to root when path lies strictly below root.
// The comparison is on whole path segments, so /a/src does not contain
// /a/srcOther/X.java.
func subPath(root, path string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(root), path)
	if err != nil || rel == "." {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
