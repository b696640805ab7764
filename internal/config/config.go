// Package config loads the explicit configuration record each pipeline
// variant is constructed with. Values come from a YAML file overlaid by
// ROLLUP_* environment variables and are validated before any fetch.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"rollupload/pkg/domain"
)

// ErrConfig marks configuration errors; they are fatal before any fetch.
var ErrConfig = errors.New("invalid configuration")

// Output formats understood by the writer registry.
const (
	FormatRollup    = "rollup"
	FormatAnnotload = "annotload"
)

// DefaultPropertyTerm is the evidence-property name carrying the source annotation key.
const DefaultPropertyTerm = "_SourceAnnot_key"

// Marker accessions referenced by the default implication settings.
const (
	GtROSA26Sor = "MGI:104735"
	Hprt        = "MGI:96217"
	Col1a1      = "MGI:88467"
)

// NoPhenotypicAnalysis is the MP term that never rolls up.
const NoPhenotypicAnalysis = "MP:0003012"

type Config struct {
	Log       LogConfig           `yaml:"log"`
	Source    SourceConfig        `yaml:"source"`
	Blob      BlobConfig          `yaml:"blob"`
	Metrics   MetricsConfig       `yaml:"metrics"`
	Pipelines map[string]Pipeline `yaml:"pipelines"`
}

type LogConfig struct {
	Mode        string `yaml:"mode"`
	Diagnostics string `yaml:"diagnostics"`
}

type SourceConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type BlobConfig struct {
	Driver string    `yaml:"driver"`
	FSRoot string    `yaml:"fs_root"`
	S3     S3Config  `yaml:"s3"`
	GCS    GCSConfig `yaml:"gcs"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

type GCSConfig struct {
	Bucket       string `yaml:"bucket"`
	EmulatorHost string `yaml:"emulator_host"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Pipeline is the per-variant configuration record.
type Pipeline struct {
	PropertyTerm       string   `yaml:"property_term"`
	Output             string   `yaml:"output"`
	NonMouseOutput     string   `yaml:"non_mouse_output"`
	NegatedOutput      string   `yaml:"negated_output"`
	IncludeNonMouse    bool     `yaml:"include_non_mouse"`
	AllowMultiMarker   bool     `yaml:"allow_multi_marker"`
	Format             string   `yaml:"format"`
	AnnotTypeKey       int64    `yaml:"annot_type_key"`
	VocabKey           int64    `yaml:"vocab_key"`
	LogicalDBKey       int64    `yaml:"logical_db_key"`
	ExcludedCategories []string `yaml:"excluded_categories"`
	ExcludedTerms      []string `yaml:"excluded_terms"`
	ExcludedTargets    []string `yaml:"excluded_targets"`
	DockingSites       []string `yaml:"docking_sites"`
	RegulatoryFeatures []string `yaml:"regulatory_features"`
	NegationQualifiers []string `yaml:"negation_qualifiers"`
	LoaderUser         string   `yaml:"loader_user"`
}

// Default returns the process-level defaults before file and environment overlays.
func Default() Config {
	return Config{
		Log:       LogConfig{Mode: "development"},
		Source:    SourceConfig{Driver: "sqlite"},
		Blob:      BlobConfig{Driver: "fs", FSRoot: "./rollupdata", S3: S3Config{Region: "us-east-1"}},
		Pipelines: map[string]Pipeline{},
	}
}

// PipelineDefaults returns the settings a variant runs with unless overridden.
func PipelineDefaults(v domain.Variant) Pipeline {
	p := Pipeline{
		PropertyTerm:       DefaultPropertyTerm,
		Format:             FormatRollup,
		ExcludedTargets:    []string{GtROSA26Sor},
		DockingSites:       []string{GtROSA26Sor, Hprt, Col1a1},
		RegulatoryFeatures: []string{"heritable phenotypic marker", "enhancer", "silencer", "imprinting control region", "locus control region", "promoter"},
		NegationQualifiers: []string{"NOT"},
		LoaderUser:         "rollupload",
		ExcludedCategories: []string{"wild-type", "reporter-transgene", "transactivator", "conditional-recombinase"},
	}
	switch v.AnnotationType() {
	case domain.AnnotationDisease:
		p.AnnotTypeKey, p.VocabKey, p.LogicalDBKey = 1020, 125, 191
	default:
		p.AnnotTypeKey, p.VocabKey, p.LogicalDBKey = 1002, 5, 34
		p.ExcludedTerms = []string{NoPhenotypicAnalysis}
	}
	if v.Target() == domain.TargetAllele {
		p.ExcludedCategories = append(p.ExcludedCategories, "marker-less")
	}
	return p
}

// Load reads path (optional), applies environment overrides, fills
// per-variant defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	set("ROLLUP_LOG_MODE", &cfg.Log.Mode)
	set("ROLLUP_DIAGNOSTICS", &cfg.Log.Diagnostics)
	set("ROLLUP_SOURCE_DRIVER", &cfg.Source.Driver)
	set("ROLLUP_SOURCE_DSN", &cfg.Source.DSN)
	set("ROLLUP_BLOB_DRIVER", &cfg.Blob.Driver)
	set("ROLLUP_BLOB_FS_ROOT", &cfg.Blob.FSRoot)
	set("ROLLUP_BLOB_S3_BUCKET", &cfg.Blob.S3.Bucket)
	set("ROLLUP_BLOB_S3_REGION", &cfg.Blob.S3.Region)
	set("ROLLUP_BLOB_S3_ENDPOINT", &cfg.Blob.S3.Endpoint)
	set("ROLLUP_BLOB_GCS_BUCKET", &cfg.Blob.GCS.Bucket)
	set("ROLLUP_BLOB_GCS_EMULATOR_HOST", &cfg.Blob.GCS.EmulatorHost)
	set("ROLLUP_METRICS_TEXTFILE", &cfg.Metrics.Textfile)
	if v := os.Getenv("ROLLUP_BLOB_S3_PATH_STYLE"); v != "" {
		cfg.Blob.S3.PathStyle = strings.EqualFold(v, "true")
	}
}

// normalize canonicalizes variant keys and fills unset pipeline fields from defaults.
func (c *Config) normalize() error {
	out := make(map[string]Pipeline, len(c.Pipelines))
	for name, p := range c.Pipelines {
		v, err := domain.ParseVariant(name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		out[string(v)] = withDefaults(p, PipelineDefaults(v))
	}
	c.Pipelines = out
	return nil
}

func withDefaults(p, def Pipeline) Pipeline {
	str := func(dst *string, d string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = d
		}
	}
	num := func(dst *int64, d int64) {
		if *dst == 0 {
			*dst = d
		}
	}
	list := func(dst *[]string, d []string) {
		if *dst == nil {
			*dst = slices.Clone(d)
		}
	}
	str(&p.PropertyTerm, def.PropertyTerm)
	str(&p.Format, def.Format)
	str(&p.LoaderUser, def.LoaderUser)
	num(&p.AnnotTypeKey, def.AnnotTypeKey)
	num(&p.VocabKey, def.VocabKey)
	num(&p.LogicalDBKey, def.LogicalDBKey)
	list(&p.ExcludedCategories, def.ExcludedCategories)
	list(&p.ExcludedTerms, def.ExcludedTerms)
	list(&p.ExcludedTargets, def.ExcludedTargets)
	list(&p.DockingSites, def.DockingSites)
	list(&p.RegulatoryFeatures, def.RegulatoryFeatures)
	list(&p.NegationQualifiers, def.NegationQualifiers)
	return p
}

// Validate checks process-level and per-pipeline settings.
func (c Config) Validate() error {
	var problems []string
	switch c.Source.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("unknown source driver %q", c.Source.Driver))
	}
	if strings.TrimSpace(c.Source.DSN) == "" {
		problems = append(problems, "source dsn required")
	}
	switch c.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			problems = append(problems, "blob.s3.bucket required for s3 driver")
		}
	case "gcs":
		if c.Blob.GCS.Bucket == "" {
			problems = append(problems, "blob.gcs.bucket required for gcs driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown blob driver %q", c.Blob.Driver))
	}
	names := make([]string, 0, len(c.Pipelines))
	for name := range c.Pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.Pipelines[name].validate(); err != nil {
			problems = append(problems, fmt.Sprintf("pipeline %s: %v", name, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (p Pipeline) validate() error {
	if strings.TrimSpace(p.Output) == "" {
		return errors.New("output required")
	}
	if strings.TrimSpace(p.PropertyTerm) == "" {
		return errors.New("property_term required")
	}
	if p.IncludeNonMouse && strings.TrimSpace(p.NonMouseOutput) == "" {
		return errors.New("non_mouse_output required when include_non_mouse is set")
	}
	switch p.Format {
	case FormatRollup, FormatAnnotload:
	default:
		return fmt.Errorf("unknown format %q", p.Format)
	}
	keys := map[string]bool{p.Output: true}
	for _, k := range []string{p.NonMouseOutput, p.NegatedOutput} {
		if k == "" {
			continue
		}
		if keys[k] {
			return fmt.Errorf("output key %q used by more than one stream", k)
		}
		keys[k] = true
	}
	return nil
}

// Pipeline returns the resolved configuration record for v.
func (c Config) Pipeline(v domain.Variant) (Pipeline, error) {
	p, ok := c.Pipelines[string(v)]
	if !ok {
		return Pipeline{}, fmt.Errorf("%w: pipeline %s not configured", ErrConfig, v)
	}
	return p, nil
}

// Configured returns the configured variants in canonical order.
func (c Config) Configured() []domain.Variant {
	var out []domain.Variant
	for _, v := range domain.Variants() {
		if _, ok := c.Pipelines[string(v)]; ok {
			out = append(out, v)
		}
	}
	return out
}

// StreamKey returns the output key for a stream, or "" when the stream is not published.
func (p Pipeline) StreamKey(s domain.Stream) string {
	switch s {
	case domain.StreamNonMouse:
		if !p.IncludeNonMouse {
			return ""
		}
		return p.NonMouseOutput
	case domain.StreamNegated:
		return p.NegatedOutput
	default:
		return p.Output
	}
}
