package diffcov_test

import (
	"path/filepath"
	"testing"

	"github.com/fwojciec/diffcov"
	"github.com/stretchr/testify/assert"
)

func TestResolveRoots(t *testing.T) {
	t.Parallel()

	base := filepath.FromSlash("/project")
	abs := filepath.FromSlash("/elsewhere/src")

	got := diffcov.ResolveRoots(base, []string{"src/main/java", abs, "gen/../src/gen"})

	assert.Equal(t, []string{
		filepath.Join(base, "src", "main", "java"),
		abs,
		filepath.Join(base, "src", "gen"),
	}, got)
}

func TestResolveRoots_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, diffcov.ResolveRoots("/project", nil))
}

func TestMapper_MapToIncludePatterns(t *testing.T) {
	t.Parallel()

	cwd := filepath.FromSlash("/project")
	root := filepath.Join(cwd, "src", "main")

	tests := []struct {
		name    string
		changed []string
		roots   []string
		want    []string
	}{
		{
			name:    "keeps sources under root and drops the rest",
			changed: []string{"src/main/a/A.java", "src/test/java/a/B.java", "src/main/a/C.txt"},
			roots:   []string{root},
			want:    []string{filepath.Join("a", "A*.class")},
		},
		{
			name:    "no changes yields sentinel",
			changed: nil,
			roots:   []string{root},
			want:    []string{diffcov.SentinelPattern},
		},
		{
			name:    "only non-source files yields sentinel",
			changed: []string{"src/main/a/A.kt", "README.md", "src/main/a/A.java.orig"},
			roots:   []string{root},
			want:    []string{""},
		},
		{
			name:    "no roots yields sentinel",
			changed: []string{"src/main/a/A.java"},
			roots:   nil,
			want:    []string{""},
		},
		{
			name:    "root prefix must match whole segments",
			changed: []string{"src/mainOther/a/A.java"},
			roots:   []string{root},
			want:    []string{""},
		},
		{
			name:    "overlapping roots emit one pattern each",
			changed: []string{"src/main/a/A.java"},
			roots:   []string{root, filepath.Join(cwd, "src")},
			want: []string{
				filepath.Join("a", "A*.class"),
				filepath.Join("main", "a", "A*.class"),
			},
		},
		{
			name:    "preserves order and duplicates",
			changed: []string{"src/main/b/B.java", "src/main/a/A.java", "src/main/b/B.java"},
			roots:   []string{root},
			want: []string{
				filepath.Join("b", "B*.class"),
				filepath.Join("a", "A*.class"),
				filepath.Join("b", "B*.class"),
			},
		},
		{
			name:    "absolute changed path is used as-is",
			changed: []string{filepath.Join(root, "a", "A.java")},
			roots:   []string{root},
			want:    []string{filepath.Join("a", "A*.class")},
		},
		{
			name:    "only the trailing suffix is replaced",
			changed: []string{"src/main/a.java/X.java"},
			roots:   []string{root},
			want:    []string{filepath.Join("a.java", "X*.class")},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := diffcov.NewMapper().MapToIncludePatterns(tt.changed, tt.roots, cwd)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapper_MapToIncludePatterns_CwdDiffersFromBaseDir(t *testing.T) {
	t.Parallel()

	// Multi-module build: the diff ran at the repository root while the
	// module lives one level down.
	repo := filepath.FromSlash("/repo")
	roots := diffcov.ResolveRoots(filepath.Join(repo, "core"), []string{"src/main/java"})

	got := diffcov.NewMapper().MapToIncludePatterns(
		[]string{"core/src/main/java/x/Y.java", "api/src/main/java/x/Z.java"},
		roots,
		repo,
	)

	assert.Equal(t, []string{filepath.Join("x", "Y*.class")}, got)
}

func TestMapper_CustomSuffixes(t *testing.T) {
	t.Parallel()

	cwd := filepath.FromSlash("/project")
	m := &diffcov.Mapper{SourceSuffix: ".kt", ArtifactSuffix: "Kt*.class"}

	got := m.MapToIncludePatterns(
		[]string{"src/main/kotlin/a/Util.kt", "src/main/kotlin/a/Old.java"},
		[]string{filepath.Join(cwd, "src", "main", "kotlin")},
		cwd,
	)

	assert.Equal(t, []string{filepath.Join("a", "UtilKt*.class")}, got)
}

func TestMapper_ZeroValueUsesDefaults(t *testing.T) {
	t.Parallel()

	cwd := filepath.FromSlash("/project")
	var m diffcov.Mapper

	got := m.MapToIncludePatterns([]string{"src/A.java"}, []string{filepath.Join(cwd, "src")}, cwd)

	assert.Equal(t, []string{"A*.class"}, got)
}

func TestScope_Empty(t *testing.T) {
	t.Parallel()

	assert.True(t, diffcov.Scope{}.Empty())
	assert.True(t, diffcov.Scope{Includes: []string{diffcov.SentinelPattern}}.Empty())
	assert.False(t, diffcov.Scope{Includes: []string{"a/A*.class"}}.Empty())
	assert.False(t, diffcov.Scope{Includes: []string{"", "a/A*.class"}}.Empty())
}
