// Package config loads diffcov settings from flags, DIFFCOV_* environment
// variables and an optional .diffcov.yaml file, in that order of precedence.
package config

import (
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project base directory.
const FileName = ".diffcov.yaml"

// EnvPrefix prefixes environment variable overrides, e.g. DIFFCOV_BASELINE.
const EnvPrefix = "DIFFCOV"

// Change providers.
const (
	ProviderGit   = "git"
	ProviderGoGit = "gogit"
	ProviderPatch = "patch"
)

// Config holds every setting the scoping engine and the report generator
// need.
type Config struct {
	Baseline string `mapstructure:"baseline" yaml:"baseline" validate:"required"`
	Provider string `mapstructure:"provider" yaml:"provider" validate:"oneof=git gogit patch"`
	Patch    string `mapstructure:"patch" yaml:"patch,omitempty" validate:"required_if=Provider patch"`
	GitPath  string `mapstructure:"git" yaml:"git"`

	BaseDir     string   `mapstructure:"base-dir" yaml:"base-dir,omitempty"`
	WorkDir     string   `mapstructure:"work-dir" yaml:"work-dir,omitempty"`
	SourceRoots []string `mapstructure:"source-roots" yaml:"source-roots" validate:"min=1"`

	Language       string `mapstructure:"language" yaml:"language,omitempty"`
	SourceSuffix   string `mapstructure:"source-suffix" yaml:"source-suffix,omitempty"`
	ArtifactSuffix string `mapstructure:"artifact-suffix" yaml:"artifact-suffix" validate:"required"`

	OutputDirectory  string   `mapstructure:"output-directory" yaml:"output-directory" validate:"required"`
	DataFile         string   `mapstructure:"data-file" yaml:"data-file" validate:"required"`
	OutputEncoding   string   `mapstructure:"output-encoding" yaml:"output-encoding"`
	SourceEncoding   string   `mapstructure:"source-encoding" yaml:"source-encoding"`
	Excludes         []string `mapstructure:"excludes" yaml:"excludes,omitempty"`
	ClassDirectories []string `mapstructure:"class-directories" yaml:"class-directories"`
	JaCoCoCLI        string   `mapstructure:"jacoco-cli" yaml:"jacoco-cli,omitempty"`

	Skip              bool `mapstructure:"skip" yaml:"skip"`
	SkipWhenNoChanges bool `mapstructure:"skip-when-no-changes" yaml:"skip-when-no-changes"`
	Verbose           bool `mapstructure:"verbose" yaml:"verbose"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("baseline", "master")
	v.SetDefault("provider", ProviderGit)
	v.SetDefault("patch", "")
	v.SetDefault("git", "git")
	v.SetDefault("base-dir", "")
	v.SetDefault("work-dir", "")
	v.SetDefault("source-roots", []string{"src/main/java"})
	v.SetDefault("language", "")
	v.SetDefault("source-suffix", "")
	v.SetDefault("artifact-suffix", "*.class")
	v.SetDefault("output-directory", filepath.Join("target", "site", "jacoco-changes"))
	v.SetDefault("data-file", filepath.Join("target", "jacoco.exec"))
	v.SetDefault("output-encoding", "UTF-8")
	v.SetDefault("source-encoding", "UTF-8")
	v.SetDefault("excludes", []string{})
	v.SetDefault("class-directories", []string{filepath.Join("target", "classes")})
	v.SetDefault("jacoco-cli", "")
	v.SetDefault("skip", false)
	v.SetDefault("skip-when-no-changes", false)
	v.SetDefault("verbose", false)
}

// SetEnvPrefix lets DIFFCOV_* environment variables override file values.
func SetEnvPrefix(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// BindFlags binds every flag in flags to the key of the same name on v.
func BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	var result error
	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			result = multierror.Append(result, err)
		}
	})
	return result
}

// Load reads the configuration file in dir, if present, and decodes the
// merged settings. Relative base and work directories resolve against dir.
func Load(v *viper.Viper, dir string) (*Config, error) {
	v.SetConfigFile(filepath.Join(dir, FileName))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "reading %s", FileName)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	cfg.BaseDir = absFrom(dir, cfg.BaseDir)
	cfg.WorkDir = absFrom(dir, cfg.WorkDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings for values the engine cannot run with.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

// Write encodes c as YAML.
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrap(err, "encoding configuration")
	}
	return enc.Close()
}

func absFrom(dir, path string) string {
	if path == "" {
		return dir
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}
