package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleksandrZin/google-election/internal/operations"
	"github.com/AleksandrZin/google-election/internal/shared/testutil"
)

func writeConfig(t *testing.T, baseDir string) string {
	t.Helper()
	path := filepath.Join(baseDir, "config.yaml")
	body := fmt.Sprintf(`paths:
  base_dir: %q
logging:
  level: error
telemetry:
  service_name: election-pipeline-test
  metric_exporter: none
`, baseDir)
	testutil.WriteFile(t, path, body)
	return path
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{"defaults", nil, options{}, false},
		{
			"all flags",
			[]string{"-config", "c.yaml", "-html", "page.html", "-out", "out", "-xlsx", "-report", "-publish", "-fetch", "-check"},
			options{configPath: "c.yaml", htmlPath: "page.html", outDir: "out", fetch: true, check: true, xlsx: true, report: true, publish: true},
			false,
		},
		{"unknown flag", []string{"-mode", "initial"}, options{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeConfig(t, base)
	out := filepath.Join(base, "elsewhere")

	cfg, err := loadConfig(options{configPath: cfgPath, outDir: out, xlsx: true})
	require.NoError(t, err)

	assert.Equal(t, base, cfg.Paths.BaseDir)
	assert.Equal(t, out, cfg.Export.OutputDir)
	assert.True(t, cfg.Export.WriteWorkbook)
	assert.False(t, cfg.Export.WriteReport)
}

func TestLoadConfig_PublishNeedsSpreadsheet(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())

	_, err := loadConfig(options{configPath: cfgPath, publish: true})
	assert.ErrorContains(t, err, "spreadsheet_id")
}

func TestRun_WritesTables(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeConfig(t, base)
	testutil.WriteSourceFiles(t, filepath.Join(base, "data"))

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-config", cfgPath, "-report"}, &stdout)
	require.NoError(t, err)

	for _, name := range []string{"geo_table.csv", "timeline_table.csv", "manifest.json", "report.md"} {
		assert.FileExists(t, filepath.Join(base, "output", name))
	}
	assert.NoFileExists(t, filepath.Join(base, "output", "fused_tables.xlsx"))

	manifest, err := operations.ReadManifest(filepath.Join(base, "output", "manifest.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, manifest.RunID)

	assert.Contains(t, stdout.String(), "completed")
	assert.Contains(t, stdout.String(), "Skipped comparison")
}

func TestRun_CheckOnly(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeConfig(t, base)
	testutil.WriteSourceFiles(t, filepath.Join(base, "data"))

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", cfgPath, "-check"}, &stdout))
	assert.Equal(t, "Sources OK\n", stdout.String())
	assert.NoFileExists(t, filepath.Join(base, "output", "geo_table.csv"))
}

func TestRun_HTMLOverride(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeConfig(t, base)
	files := testutil.WriteSourceFiles(t, filepath.Join(base, "data"))

	page := filepath.Join(base, "elsewhere", "page.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(page), 0o755))
	require.NoError(t, os.Rename(files.ResultsHTML, page))

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", cfgPath, "-html", page}, &stdout))
	assert.FileExists(t, filepath.Join(base, "output", "geo_table.csv"))
}

func TestRun_MissingSourcesFails(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeConfig(t, base)

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-config", cfgPath}, &stdout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source check failed")
	assert.Contains(t, err.Error(), "results page")
	assert.Empty(t, stdout.String())

	_, statErr := os.Stat(filepath.Join(base, "output", "geo_table.csv"))
	assert.True(t, os.IsNotExist(statErr))
}
