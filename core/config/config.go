// Package config loads and validates engine configuration.
//
// Every analysis threshold lives here rather than in code: the
// segmentation grammar, co-occurrence windows, permutation seeds, and
// clustering bounds are all injected so that a run is fully described
// by its corpus snapshot plus one config file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Window identifies a co-occurrence windowing scheme.
type Window string

const (
	WindowLine   Window = "line"
	WindowRecord Window = "record"
	WindowFolio  Window = "folio"
)

// Config is the root configuration for a pipeline run.
type Config struct {
	Grammar     GrammarConfig     `yaml:"grammar"`
	Index       IndexConfig       `yaml:"index"`
	Graph       GraphConfig       `yaml:"graph"`
	Cluster     ClusterConfig     `yaml:"cluster"`
	Classify    ClassifyConfig    `yaml:"classify"`
	Permutation PermutationConfig `yaml:"permutation"`
	Harness     HarnessConfig     `yaml:"harness"`
	Registry    RegistryConfig    `yaml:"registry"`
}

// GrammarConfig is the injected segmentation rule set. The corpus
// grammar is data, not code: the affix inventories evolve between
// corpus versions and a run must be reproducible against the exact
// inventory it was configured with.
type GrammarConfig struct {
	// Prefixes and Suffixes are ordered by priority; when two affix
	// candidates tie on length the earlier entry wins.
	Prefixes []string `yaml:"prefixes"`
	Suffixes []string `yaml:"suffixes"`

	// MinMiddleLen is the minimum length of the mandatory middle
	// segment after affix stripping.
	MinMiddleLen int `yaml:"min_middle_len"`

	// MiddleAlphabet, when non-empty, restricts the characters a
	// middle may contain; anything else marks the token UNPARSEABLE.
	MiddleAlphabet string `yaml:"middle_alphabet"`
}

// IndexConfig controls corpus index aggregation.
type IndexConfig struct {
	// PositionBins is the fixed number of positional histogram bins.
	// Bins are declared once per run and never silently rebinned.
	PositionBins int `yaml:"position_bins"`

	// Shards is the folio-sharding fan-out for parallel ingestion.
	Shards int `yaml:"shards"`
}

// GraphConfig controls compatibility edge derivation and analysis.
type GraphConfig struct {
	// Window is the primary co-occurrence windowing scheme.
	Window Window `yaml:"window"`

	// AltWindow is the independent scheme used for the robustness
	// check; it must differ from Window.
	AltWindow Window `yaml:"alt_window"`

	// RecordLines is the record window width in lines.
	RecordLines int `yaml:"record_lines"`

	// MinCooccurrence is the count threshold for edge legality.
	MinCooccurrence int `yaml:"min_cooccurrence"`

	// AgreementGate is the minimum fraction of pairs on which the two
	// windowing schemes must agree for the graph to be sound.
	AgreementGate float64 `yaml:"agreement_gate"`

	// HubDegreePercentile selects hub candidates by degree before the
	// percolation check.
	HubDegreePercentile float64 `yaml:"hub_degree_percentile"`

	// HubComponentDelta is the minimum component-count increase a
	// candidate's removal must cause to qualify as a hub.
	HubComponentDelta int `yaml:"hub_component_delta"`
}

// ClassRule is one rule-stage assignment: middles matching any pattern
// belong to the named class. Patterns are glob expressions over the
// decomposed form, e.g. "qo*" against prefix+middle.
type ClassRule struct {
	Name     string   `yaml:"name"`
	Role     string   `yaml:"role"`
	Hazard   bool     `yaml:"hazard"`
	Patterns []string `yaml:"patterns"`
}

// ClassifyConfig controls the two-stage classification procedure.
type ClassifyConfig struct {
	Rules []ClassRule `yaml:"rules"`

	// StabilitySections is how many section strata must reproduce an
	// assignment before it is VALIDATED.
	StabilitySections int `yaml:"stability_sections"`

	// MinExpected is the minimum baseline-expected bigram count for a
	// never-observed transition to be a forbidden candidate; sparse
	// zeros below it are ignored.
	MinExpected float64 `yaml:"min_expected"`
}

// ClusterConfig bounds silhouette-driven k selection.
type ClusterConfig struct {
	KMin            int     `yaml:"k_min"`
	KMax            int     `yaml:"k_max"`
	SilhouetteFloor float64 `yaml:"silhouette_floor"`
	MaxIterations   int     `yaml:"max_iterations"`
	Restarts        int     `yaml:"restarts"`
	Seed            int64   `yaml:"seed"`
}

// PermutationConfig controls shuffle-based significance testing.
type PermutationConfig struct {
	Shuffles int   `yaml:"shuffles"`
	Seed     int64 `yaml:"seed"`

	// CheckpointEvery persists partial null counts after this many
	// shuffles; zero disables checkpointing.
	CheckpointEvery int `yaml:"checkpoint_every"`

	// CheckpointDir holds resumable permutation state.
	CheckpointDir string `yaml:"checkpoint_dir"`
}

// HarnessConfig controls hypothesis test execution.
type HarnessConfig struct {
	Workers     int           `yaml:"workers"`
	TestTimeout time.Duration `yaml:"test_timeout"`
	Alpha       float64       `yaml:"alpha"`
}

// RegistryConfig locates the constraint registry store.
type RegistryConfig struct {
	// Path is the sqlite database file; empty selects the in-memory
	// store.
	Path string `yaml:"path"`

	// MaxRetries bounds client-side retry on version conflicts.
	MaxRetries int `yaml:"max_retries"`
}

// DefaultConfig returns the baseline configuration. The grammar here is
// an illustrative inventory; real runs override it from the corpus
// grammar file.
func DefaultConfig() *Config {
	return &Config{
		Grammar: GrammarConfig{
			Prefixes:     []string{"qo", "o", "y", "ch", "sh", "d"},
			Suffixes:     []string{"aiin", "ain", "iin", "in", "y", "dy", "n"},
			MinMiddleLen: 1,
		},
		Index: IndexConfig{
			PositionBins: 10,
			Shards:       4,
		},
		Graph: GraphConfig{
			Window:              WindowLine,
			AltWindow:           WindowRecord,
			RecordLines:         3,
			MinCooccurrence:     2,
			AgreementGate:       0.90,
			HubDegreePercentile: 0.95,
			HubComponentDelta:   1,
		},
		Classify: ClassifyConfig{
			StabilitySections: 2,
			MinExpected:       3.0,
		},
		Cluster: ClusterConfig{
			KMin:            2,
			KMax:            8,
			SilhouetteFloor: 0.25,
			MaxIterations:   200,
			Restarts:        4,
			Seed:            1,
		},
		Permutation: PermutationConfig{
			Shuffles:        1000,
			Seed:            1,
			CheckpointEvery: 0,
			CheckpointDir:   ".graphein/checkpoints",
		},
		Harness: HarnessConfig{
			Workers:     4,
			TestTimeout: 2 * time.Minute,
			Alpha:       0.05,
		},
		Registry: RegistryConfig{
			Path:       ".graphein/registry.db",
			MaxRetries: 5,
		},
	}
}

// Load reads a YAML config file over the defaults and validates the
// result. A validation failure is fatal to the run; nothing executes
// against an invalid configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &Error{Field: "config", Reason: err.Error()}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &Error{Field: "config", Reason: fmt.Sprintf("parse: %v", err)}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Error reports an invalid configuration value. It is the only fatal
// error class at startup.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func validWindow(w Window) bool {
	switch w {
	case WindowLine, WindowRecord, WindowFolio:
		return true
	}
	return false
}

// Validate checks every threshold against its allowed range.
func (c *Config) Validate() error {
	if len(c.Grammar.Prefixes) == 0 && len(c.Grammar.Suffixes) == 0 {
		return &Error{Field: "grammar", Reason: "no affix inventory supplied"}
	}
	if c.Grammar.MinMiddleLen < 1 {
		return &Error{Field: "grammar.min_middle_len", Reason: "must be >= 1"}
	}
	if c.Index.PositionBins < 1 {
		return &Error{Field: "index.position_bins", Reason: "must be >= 1"}
	}
	if c.Index.Shards < 1 {
		return &Error{Field: "index.shards", Reason: "must be >= 1"}
	}
	if !validWindow(c.Graph.Window) {
		return &Error{Field: "graph.window", Reason: fmt.Sprintf("unrecognized window %q", c.Graph.Window)}
	}
	if !validWindow(c.Graph.AltWindow) {
		return &Error{Field: "graph.alt_window", Reason: fmt.Sprintf("unrecognized window %q", c.Graph.AltWindow)}
	}
	if c.Graph.Window == c.Graph.AltWindow {
		return &Error{Field: "graph.alt_window", Reason: "robustness check requires a distinct scheme"}
	}
	if c.Graph.RecordLines < 2 {
		return &Error{Field: "graph.record_lines", Reason: "must be >= 2"}
	}
	if c.Graph.MinCooccurrence < 1 {
		return &Error{Field: "graph.min_cooccurrence", Reason: "must be >= 1"}
	}
	if c.Graph.AgreementGate <= 0 || c.Graph.AgreementGate > 1 {
		return &Error{Field: "graph.agreement_gate", Reason: "must be in (0, 1]"}
	}
	if c.Graph.HubDegreePercentile <= 0 || c.Graph.HubDegreePercentile >= 1 {
		return &Error{Field: "graph.hub_degree_percentile", Reason: "must be in (0, 1)"}
	}
	if c.Graph.HubComponentDelta < 1 {
		return &Error{Field: "graph.hub_component_delta", Reason: "must be >= 1"}
	}
	if c.Classify.StabilitySections < 1 {
		return &Error{Field: "classify.stability_sections", Reason: "must be >= 1"}
	}
	if c.Classify.MinExpected < 0 {
		return &Error{Field: "classify.min_expected", Reason: "must be >= 0"}
	}
	for i, r := range c.Classify.Rules {
		if r.Name == "" {
			return &Error{Field: "classify.rules", Reason: fmt.Sprintf("rule %d has no name", i)}
		}
		if len(r.Patterns) == 0 {
			return &Error{Field: "classify.rules", Reason: fmt.Sprintf("rule %q has no patterns", r.Name)}
		}
	}
	if c.Cluster.KMin < 2 {
		return &Error{Field: "cluster.k_min", Reason: "must be >= 2"}
	}
	if c.Cluster.KMax < c.Cluster.KMin {
		return &Error{Field: "cluster.k_max", Reason: "must be >= k_min"}
	}
	if c.Cluster.SilhouetteFloor < 0 || c.Cluster.SilhouetteFloor >= 1 {
		return &Error{Field: "cluster.silhouette_floor", Reason: "must be in [0, 1)"}
	}
	if c.Cluster.MaxIterations < 1 {
		return &Error{Field: "cluster.max_iterations", Reason: "must be >= 1"}
	}
	if c.Cluster.Restarts < 1 {
		return &Error{Field: "cluster.restarts", Reason: "must be >= 1"}
	}
	if c.Permutation.Shuffles < 1 {
		return &Error{Field: "permutation.shuffles", Reason: "must be >= 1"}
	}
	if c.Permutation.CheckpointEvery < 0 {
		return &Error{Field: "permutation.checkpoint_every", Reason: "must be >= 0"}
	}
	if c.Harness.Workers < 1 {
		return &Error{Field: "harness.workers", Reason: "must be >= 1"}
	}
	if c.Harness.TestTimeout <= 0 {
		return &Error{Field: "harness.test_timeout", Reason: "must be positive"}
	}
	if c.Harness.Alpha <= 0 || c.Harness.Alpha >= 1 {
		return &Error{Field: "harness.alpha", Reason: "must be in (0, 1)"}
	}
	if c.Registry.MaxRetries < 0 {
		return &Error{Field: "registry.max_retries", Reason: "must be >= 0"}
	}
	return nil
}
