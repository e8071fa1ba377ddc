package project

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"cinder/internal/opt"
)

// Manifest is the parsed cinder.toml.
type Manifest struct {
	Package PackageSection `toml:"package"`
	Opt     OptSection     `toml:"opt"`
}

// PackageSection describes the [package] section.
type PackageSection struct {
	Name string `toml:"name"`
}

// OptSection holds the optimizer knobs from the [opt] section. Zero values
// mean "use the built-in default".
type OptSection struct {
	MaxArgCombinations int  `toml:"max_arg_combinations"`
	MaxEqualityChecks  int  `toml:"max_equality_checks"`
	Verify             bool `toml:"verify"`
	Jobs               int  `toml:"jobs"`
}

// ErrPackageSectionMissing indicates that [package] is missing in a manifest.
var ErrPackageSectionMissing = errors.New("missing [package]")

// LoadManifest parses a cinder.toml. The [opt] section is optional; a
// missing knob keeps its default.
func LoadManifest(path string) (Manifest, error) {
	var cfg Manifest
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Manifest{}, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if cfg.Package.Name == "" {
		return Manifest{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if cfg.Opt.MaxArgCombinations < 0 {
		return Manifest{}, fmt.Errorf("%s: [opt].max_arg_combinations must not be negative", path)
	}
	if cfg.Opt.MaxEqualityChecks < 0 {
		return Manifest{}, fmt.Errorf("%s: [opt].max_equality_checks must not be negative", path)
	}
	if cfg.Opt.Jobs < 0 {
		return Manifest{}, fmt.Errorf("%s: [opt].jobs must not be negative", path)
	}
	return cfg, nil
}

// OptConfig merges the manifest's [opt] section over the built-in defaults.
func (m Manifest) OptConfig() opt.Config {
	cfg := opt.DefaultConfig()
	if m.Opt.MaxArgCombinations > 0 {
		cfg.MaxArgCombinations = m.Opt.MaxArgCombinations
	}
	if m.Opt.MaxEqualityChecks > 0 {
		cfg.MaxEqualityChecks = m.Opt.MaxEqualityChecks
	}
	cfg.Verify = m.Opt.Verify
	cfg.Jobs = m.Opt.Jobs
	return cfg
}
