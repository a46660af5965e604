package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"sales-stats/internal/artifact"
	"sales-stats/internal/config"
	"sales-stats/internal/storage"
)

func newTestApp(t *testing.T, source string) (*App, *bytes.Buffer) {
	t.Helper()
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Database.DSN = ""
	cfg.Pipeline.SourcePath = source
	cfg.Pipeline.OutputPath = filepath.Join(t.TempDir(), "out", "stats.json")

	out := &bytes.Buffer{}
	a := NewApp(cfg, zerolog.Nop())
	a.Out = out
	return a, out
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dados.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestComputeWritesArtifactAndPrintsResult(t *testing.T) {
	source := writeSource(t, "preco,qtd\n10,2\n5,4\n")
	a, out := newTestApp(t, source)

	if err := a.Compute(context.Background(), ComputeOptions{}); err != nil {
		t.Fatalf("compute: %v", err)
	}

	if !strings.Contains(out.String(), `"receita_total": 40.00`) {
		t.Fatalf("unexpected output %s", out.String())
	}

	res, raw, err := artifact.NewStore(a.Config.Pipeline.OutputPath, zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	if len(raw) == 0 || res.TotalQuantity != 6 {
		t.Fatalf("unexpected artifact %+v", res)
	}
	// qtd values 2 and 4 with threshold 2 keep only 4.
	if res.Challenge.Count != 1 || res.Challenge.SumOfSquares != 16 {
		t.Fatalf("unexpected challenge %+v", res.Challenge)
	}
}

func TestComputeOverrides(t *testing.T) {
	source := writeSource(t, "preco,qtd\n10,2\n5,4\n")
	a, _ := newTestApp(t, "missing.csv")
	output := filepath.Join(t.TempDir(), "override.json")
	threshold := int64(0)

	err := a.Compute(context.Background(), ComputeOptions{
		SourcePath: source,
		OutputPath: output,
		Column:     "price",
		Threshold:  &threshold,
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	res, _, err := artifact.NewStore(output, zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	if res.Challenge.Count != 1 || res.Challenge.SumOfSquares != 100 {
		t.Fatalf("unexpected challenge %+v", res.Challenge)
	}
	if _, err := os.Stat(a.Config.Pipeline.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("default output should be untouched, stat err = %v", err)
	}
}

func TestComputeColumnAlias(t *testing.T) {
	source := writeSource(t, "preco,qtd\n10,2\n5,4\n")
	a, out := newTestApp(t, source)

	if err := a.Compute(context.Background(), ComputeOptions{Column: "qtd"}); err != nil {
		t.Fatalf("compute with alias column: %v", err)
	}
	if !strings.Contains(out.String(), `"soma_quadrados": 16`) {
		t.Fatalf("unexpected output %s", out.String())
	}
}

func TestComputeMissingSourceLeavesNoArtifact(t *testing.T) {
	a, out := newTestApp(t, filepath.Join(t.TempDir(), "absent.csv"))

	if err := a.Compute(context.Background(), ComputeOptions{}); err == nil {
		t.Fatal("expected error for missing source")
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be printed, got %q", out.String())
	}
	if _, err := os.Stat(a.Config.Pipeline.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("artifact should not exist, stat err = %v", err)
	}
}

func TestHistoryRequiresDatabase(t *testing.T) {
	a, _ := newTestApp(t, "dados.csv")
	if err := a.History(context.Background(), HistoryOptions{Limit: 5}); err == nil {
		t.Fatal("expected error without database")
	}
}

func TestExportRequiresTarget(t *testing.T) {
	a, _ := newTestApp(t, "dados.csv")
	if err := a.Export(context.Background(), ExportOptions{}); err == nil {
		t.Fatal("expected error without --csv or --png")
	}
}

func TestChartWritesPNG(t *testing.T) {
	source := writeSource(t, "preco,qtd\n10,2\n5,4\n7.5,1\n")
	a, _ := newTestApp(t, source)
	output := filepath.Join(t.TempDir(), "charts", "prices.png")

	if err := a.Chart(ChartOptions{Output: output, Bins: 3}); err != nil {
		t.Fatalf("chart: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("output is not a PNG")
	}
}

func sampleRuns(n int) []storage.RunRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	runs := make([]storage.RunRecord, n)
	for i := range runs {
		runs[i] = storage.RunRecord{
			ComputedAt:    start.Add(time.Duration(i) * time.Minute),
			SourcePath:    "dados.csv",
			Rows:          3,
			TotalQuantity: int64(i),
			TotalRevenue:  decimal.NewFromInt(int64(i * 10)),
			AveragePrice:  decimal.NewFromInt(10),
		}
	}
	return runs
}

func TestDownsampleRuns(t *testing.T) {
	runs := sampleRuns(10)

	if got := downsampleRuns(runs, 0); len(got) != 10 {
		t.Fatalf("max 0 should keep all runs, got %d", len(got))
	}
	if got := downsampleRuns(runs, 20); len(got) != 10 {
		t.Fatalf("max above length should keep all runs, got %d", len(got))
	}

	got := downsampleRuns(runs, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(got))
	}
	if got[0].TotalQuantity != 0 || got[3].TotalQuantity != 9 {
		t.Fatalf("endpoints not preserved: first=%d last=%d", got[0].TotalQuantity, got[3].TotalQuantity)
	}

	last := downsampleRuns(runs, 1)
	if len(last) != 1 || last[0].TotalQuantity != 9 {
		t.Fatalf("max 1 should keep the latest run, got %+v", last)
	}
}

func TestWriteRunsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "runs.csv")
	if err := writeRunsCSV(path, sampleRuns(2)); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "computed_at" || rows[2][4] != "10.00" || rows[2][5] != "10.00" {
		t.Fatalf("unexpected rows %v", rows)
	}
}
