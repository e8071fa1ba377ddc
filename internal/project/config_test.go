package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"cinder/internal/project"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "cinder.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func TestLoadManifestWithOptSection(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"

[opt]
max_arg_combinations = 96
verify = true
jobs = 2
`)
	manifest, err := project.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if manifest.Package.Name != "demo" {
		t.Fatalf("package name = %q", manifest.Package.Name)
	}

	cfg := manifest.OptConfig()
	if cfg.MaxArgCombinations != 96 {
		t.Fatalf("MaxArgCombinations = %d, want 96", cfg.MaxArgCombinations)
	}
	// Unset knobs keep their defaults.
	if cfg.MaxEqualityChecks != 16 {
		t.Fatalf("MaxEqualityChecks = %d, want the default 16", cfg.MaxEqualityChecks)
	}
	if !cfg.Verify || cfg.Jobs != 2 {
		t.Fatalf("verify/jobs not carried over: %+v", cfg)
	}
}

func TestLoadManifestDefaultsWithoutOptSection(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"
`)
	manifest, err := project.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	cfg := manifest.OptConfig()
	if cfg.MaxArgCombinations != 48 || cfg.MaxEqualityChecks != 16 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Verify || cfg.Jobs != 0 {
		t.Fatalf("unexpected non-zero knobs: %+v", cfg)
	}
}

func TestLoadManifestRejectsMissingPackage(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[opt]
verify = true
`)
	if _, err := project.LoadManifest(path); err == nil {
		t.Fatal("manifest without [package] accepted")
	}
}

func TestFindCinderTomlWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	path, ok, err := project.FindCinderToml(nested)
	if err != nil || !ok {
		t.Fatalf("FindCinderToml = %v, %v", ok, err)
	}
	if filepath.Dir(path) != root {
		t.Fatalf("found %q, want the manifest in %q", path, root)
	}

	rootDir, ok, err := project.FindProjectRoot(nested)
	if err != nil || !ok || rootDir != root {
		t.Fatalf("FindProjectRoot = %q, %v, %v", rootDir, ok, err)
	}
}
