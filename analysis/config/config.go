// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/UnitTestBot/jacodb-sub000/internal/funcutil"
	"gopkg.in/yaml.v3"
)

// Config contains the options of the analysis engine and the taint tracking problems.
// To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// TaintTrackingProblems lists the taint tracking specifications
	TaintTrackingProblems []TaintSpec `yaml:"taint-tracking-problems"`
}

// TaintSpec contains code identifiers that identify a specific taint tracking problem
type TaintSpec struct {
	// Name is the rule identifier reported with every finding of this problem
	Name string `yaml:"name"`

	// Sources is the list of methods whose return value is tainted
	Sources []CodeIdentifier `yaml:"sources"`

	// Sinks is the list of methods that must not receive tainted arguments
	Sinks []CodeIdentifier `yaml:"sinks"`

	// Sanitizers is the list of methods that clean the taint of their arguments
	Sanitizers []CodeIdentifier `yaml:"sanitizers"`
}

// Options are the engine settings
type Options struct {
	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Timeout bounds the wall-clock time of the analysis. When the timeout expires, the results computed so far
	// are returned. A zero timeout means no bound.
	Timeout time.Duration `yaml:"timeout"`

	// UnitGranularity is the strategy used to partition methods into units: one of method, class, package or
	// singleton.
	UnitGranularity string `yaml:"unit-granularity"`

	// Bidirectional enables the backward alias analysis for analyses that provide one
	Bidirectional bool `yaml:"bidirectional"`

	// TeardownDepth bounds the depth of the search in the unit dependency graph when deciding whether a unit whose
	// queue is empty can be torn down. Units beyond that depth are considered busy.
	TeardownDepth int `yaml:"teardown-depth"`

	// MaxTraces sets a limit on the number of traces enumerated per finding. If MaxTraces <= 0, it is ignored.
	MaxTraces int `yaml:"max-traces"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:            "",
		TaintTrackingProblems: nil,
		Options: Options{
			LogLevel:        int(InfoLevel),
			Timeout:         DefaultTimeout,
			UnitGranularity: DefaultUnitGranularity,
			Bidirectional:   false,
			TeardownDepth:   DefaultTeardownDepth,
			MaxTraces:       DefaultMaxTraces,
			SilenceWarn:     false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("could not load %s: %w", filename, err)
	}
	cfg.sourceFile = filename
	return cfg, nil
}

// Parse reads a configuration from the yaml contents in b
func Parse(b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.UnitGranularity == "" {
		cfg.UnitGranularity = DefaultUnitGranularity
	}
	if cfg.TeardownDepth <= 0 {
		cfg.TeardownDepth = DefaultTeardownDepth
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("negative timeout %s", cfg.Timeout)
	}
	switch cfg.UnitGranularity {
	case UnitGranularityMethod, UnitGranularityClass, UnitGranularityPackage, UnitGranularitySingleton:
	default:
		return nil, fmt.Errorf("unknown unit granularity %q", cfg.UnitGranularity)
	}

	for i := range cfg.TaintTrackingProblems {
		spec := &cfg.TaintTrackingProblems[i]
		if spec.Name == "" {
			spec.Name = fmt.Sprintf("taint-%d", i)
		}
		spec.Sources = funcutil.Map(spec.Sources, compileRegexes)
		spec.Sinks = funcutil.Map(spec.Sinks, compileRegexes)
		spec.Sanitizers = funcutil.Map(spec.Sanitizers, compileRegexes)
	}
	return cfg, nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// IsSource returns true if the code identifier matches a source specification of the problem
func (ts TaintSpec) IsSource(cid CodeIdentifier) bool {
	return cid.MatchesAny(ts.Sources)
}

// IsSink returns true if the code identifier matches a sink specification of the problem
func (ts TaintSpec) IsSink(cid CodeIdentifier) bool {
	return cid.MatchesAny(ts.Sinks)
}

// IsSanitizer returns true if the code identifier matches a sanitizer specification of the problem
func (ts TaintSpec) IsSanitizer(cid CodeIdentifier) bool {
	return cid.MatchesAny(ts.Sanitizers)
}

// IsSomeSource returns true if the code identifier matches any source in the config
func (c Config) IsSomeSource(cid CodeIdentifier) bool {
	return funcutil.Exists(c.TaintTrackingProblems, func(t TaintSpec) bool { return t.IsSource(cid) })
}

// IsSomeSink returns true if the code identifier matches any sink in the config
func (c Config) IsSomeSink(cid CodeIdentifier) bool {
	return funcutil.Exists(c.TaintTrackingProblems, func(t TaintSpec) bool { return t.IsSink(cid) })
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
