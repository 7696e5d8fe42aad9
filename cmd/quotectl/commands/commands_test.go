package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/quotecalc/internal/quote"
)

const clinicScenario = `
title = "Clinic renewal"

[components.equipment]
device_count = 10

[components.licensing]
users = 20

[components.support]
tier = "premium"
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append(args, "--cpi", "0.03")...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, logs bytes.Buffer
	root := newRootCmd(&logs)
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuoteCommandPrintsTotals(t *testing.T) {
	out, err := run(t, "quote", "--scenario", writeScenario(t, clinicScenario))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	for _, expected := range []string{"Clinic renewal", "Equipment", "4,500.00", "Three-year total:"} {
		if !strings.Contains(out, expected) {
			t.Fatalf("expected output to contain %q, got:\n%s", expected, out)
		}
	}
}

func TestQuoteCommandJSONAndWorkbook(t *testing.T) {
	xlsx := filepath.Join(t.TempDir(), "quote.xlsx")
	out, err := run(t, "quote", "--scenario", writeScenario(t, clinicScenario), "--json", "--xlsx", xlsx)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	var body struct {
		Title string      `json:"title"`
		Quote quote.Quote `json:"quote"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if body.Title != "Clinic renewal" || body.Quote.Summary.ComponentCount != 3 {
		t.Fatalf("unexpected output: %+v", body)
	}
	if body.Quote.Summary.OneTime != 4500 || body.Quote.Summary.MonthlySubtotal != 1010 {
		t.Fatalf("unexpected summary: %+v", body.Quote.Summary)
	}

	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Lines")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("workbook rows=%d, want header plus 3", len(rows))
	}
}

func TestQuoteCommandRejectsInvalidScenario(t *testing.T) {
	_, err := run(t, "quote", "--scenario", writeScenario(t, "[components.equipment]\ndevice_count = -1\n"))
	if err == nil || !strings.Contains(err.Error(), "device_count") {
		t.Fatalf("err=%v, want device_count schema error", err)
	}
}

func TestRootRejectsOutOfRangeCPI(t *testing.T) {
	for _, rate := range []string{"-0.01", "0.3"} {
		_, err := execute(t, "catalog", "--cpi", rate)
		if err == nil || !strings.Contains(err.Error(), "--cpi") {
			t.Fatalf("--cpi %s: err=%v, want range error", rate, err)
		}
	}
}

func TestValidateCommandReportsDisabledDependencies(t *testing.T) {
	out, err := run(t, "validate", "--scenario", writeScenario(t, "[components.support]\ntier = \"basic\"\n"))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if strings.Count(out, "disabled-dependency") != 2 || !strings.Contains(out, "ok: 1 components enabled") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCatalogCommandListsComponents(t *testing.T) {
	out, err := run(t, "catalog")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	for _, id := range []string{"equipment", "managed_services", "bundle"} {
		if !strings.Contains(out, id) {
			t.Fatalf("expected catalog to list %s, got:\n%s", id, out)
		}
	}
}
