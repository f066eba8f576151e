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
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docrenamer/constants"
	"github.com/joseph-ayodele/docrenamer/internal/app"
	"github.com/joseph-ayodele/docrenamer/internal/common"
	"github.com/joseph-ayodele/docrenamer/internal/repository"
)

func writeConfig(t *testing.T, watch, journalDSN string) string {
	t.Helper()
	body := fmt.Sprintf(`
watch_directory: %q
docling: {host: localhost, port: 5001}
ollama: {host: localhost, port: 11434, model: llama3, prompt: "Dateiname"}
retry: {interval_seconds: 60, max_attempts: 3}
supported_extensions: [pdf, png]
journal: {driver: sqlite, dsn: %q}
`, watch, journalDSN)
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	watch := t.TempDir()
	cfgPath := writeConfig(t, watch, "")

	out, err := execute(t, "check", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "config ok")
	assert.Contains(t, out, filepath.Join(watch, "Verarbeitet"))
	assert.Contains(t, out, ".pdf")
	assert.Contains(t, out, "image/png")
	assert.NotContains(t, out, ".docx")
}

func TestCheckCommand_InvalidConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("watch_directory: /x\n"), 0o644))

	_, err := execute(t, "check", "-c", p)
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeConfig))
}

func TestReportCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "journal.db")
	cfgPath := writeConfig(t, t.TempDir(), dsn)

	ctx := context.Background()
	j, closeFn, err := app.OpenJournal(ctx, common.JournalConfig{Driver: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, repository.Event{Document: "scan1.pdf", SourcePath: "/w/scan1.pdf", Status: constants.EventProcessed}))
	require.NoError(t, j.Record(ctx, repository.Event{Document: "bad.pdf", SourcePath: "/w/bad.pdf", Status: constants.EventFailed}))
	closeFn()

	out := filepath.Join(t.TempDir(), "reports", "journal.xlsx")
	_, err = execute(t, "report", "--config", cfgPath, "--out", out)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Events")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestReportCommand_RequiresJournal(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir(), "")
	_, err := execute(t, "report", "--config", cfgPath)
	assert.Error(t, err)
}

func TestReportCommand_BadDate(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir(), "")
	_, err := execute(t, "report", "--config", cfgPath, "--from", "01/02/2024")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}
