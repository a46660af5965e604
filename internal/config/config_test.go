package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("defaults should load without a file: %v", err)
	}

	if cfg.Pipeline.ChallengeColumn != "quantity" || cfg.Pipeline.ChallengeThreshold != 2 {
		t.Fatalf("unexpected challenge defaults: %+v", cfg.Pipeline)
	}
	if !reflect.DeepEqual(cfg.Pipeline.QuantityAliases, []string{"quantity", "qtd"}) {
		t.Fatalf("unexpected quantity aliases: %v", cfg.Pipeline.QuantityAliases)
	}
	if cfg.Watch.Interval != 5*time.Minute {
		t.Fatalf("unexpected watch interval %s", cfg.Watch.Interval)
	}
	if cfg.CommaRune() != ',' {
		t.Fatalf("unexpected comma %q", cfg.CommaRune())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
pipeline:
  source_path: sales.csv
  challenge_column: price
  challenge_threshold: 10
  comma: ";"
http:
  addr: ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SALESSTATS_PIPELINE_OUTPUT_PATH", "/tmp/out.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pipeline.SourcePath != "sales.csv" || cfg.Pipeline.ChallengeColumn != "price" || cfg.Pipeline.ChallengeThreshold != 10 {
		t.Fatalf("file values not applied: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.OutputPath != "/tmp/out.json" {
		t.Fatalf("env override not applied: %s", cfg.Pipeline.OutputPath)
	}
	if cfg.CommaRune() != ';' {
		t.Fatalf("expected ';', got %q", cfg.CommaRune())
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected addr %s", cfg.HTTP.Addr)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Pipeline: PipelineConfig{SourcePath: "a.csv", OutputPath: "b.json", ChallengeColumn: "quantity", Comma: ","},
			Watch:    WatchConfig{Interval: time.Minute},
			HTTP:     HTTPConfig{HistogramBins: 10},
			Export:   ExportConfig{MaxDataPoints: 10},
		}
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	for _, column := range []string{"price", "qtd", " Preço "} {
		cfg := valid()
		cfg.Pipeline.ChallengeColumn = column
		if err := cfg.Validate(); err != nil {
			t.Fatalf("challenge column %q should resolve through aliases: %v", column, err)
		}
	}

	cases := map[string]func(*Config){
		"no source":      func(c *Config) { c.Pipeline.SourcePath = "" },
		"no output":      func(c *Config) { c.Pipeline.OutputPath = " " },
		"unknown column": func(c *Config) { c.Pipeline.ChallengeColumn = "discount" },
		"long comma":     func(c *Config) { c.Pipeline.Comma = ";;" },
		"zero points":    func(c *Config) { c.Export.MaxDataPoints = 0 },
		"zero interval":  func(c *Config) { c.Watch.Interval = 0 },
		"zero bins":      func(c *Config) { c.HTTP.HistogramBins = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := Config{Export: ExportConfig{MaxDataPoints: 50}}
	if cfg.ResolveMaxPoints(0) != 50 {
		t.Fatal("zero override should fall back to config")
	}
	if cfg.ResolveMaxPoints(7) != 7 {
		t.Fatal("positive override should win")
	}
}
