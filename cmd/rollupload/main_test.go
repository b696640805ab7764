package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rollupload/internal/rollup"
	"rollupload/testutil"
)

type harness struct {
	src    *testutil.Source
	root   string
	dir    string
	config string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	src := testutil.NewSource(t)
	testutil.SeedScenarios(src)
	dir := t.TempDir()
	h := harness{src: src, root: filepath.Join(dir, "out"), dir: dir, config: filepath.Join(dir, "rollup.yaml")}
	cfg := fmt.Sprintf(`log:
  mode: production
  diagnostics: %s
source:
  driver: sqlite
  dsn: %s
blob:
  driver: fs
  fs_root: %s
metrics:
  textfile: %s
pipelines:
  disease-marker:
    output: disease-marker.txt
  phenotype-marker:
    output: phenotype-marker.txt
    non_mouse_output: phenotype-marker.nonmouse.txt
  disease-allele:
    output: disease-allele.txt
`, filepath.Join(dir, "rejections.jsonl"), src.Path, h.root, filepath.Join(dir, "rollup.prom"))
	if err := os.WriteFile(h.config, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return h
}

func (h harness) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"rollupload"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (h harness) read(t *testing.T, name string) string {
	t.Helper()
	// #nosec G304 -- path is under the test TempDir.
	b, err := os.ReadFile(filepath.Join(h.root, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

func TestRunAllConfiguredVariants(t *testing.T) {
	h := newHarness(t)
	code, stdout, stderr := h.run(t, "run", "--config", h.config, "--variant", "all")
	if code != rollup.ExitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var reports []rollup.Report
	if err := json.Unmarshal([]byte(stdout), &reports); err != nil {
		t.Fatalf("decode reports: %v\n%s", err, stdout)
	}
	if len(reports) != 3 {
		t.Fatalf("expected three reports, got %d", len(reports))
	}
	if !strings.HasPrefix(h.read(t, "disease-marker.txt"), "A\tMGI:97490\tDOID:12271") {
		t.Fatalf("unexpected disease-marker output")
	}
	if _, err := os.Stat(filepath.Join(h.root, "phenotype-marker.nonmouse.txt")); !os.IsNotExist(err) {
		t.Fatalf("non-mouse stream must not publish unless requested: %v", err)
	}
	// #nosec G304 -- path is under the test TempDir.
	diag, err := os.ReadFile(filepath.Join(h.dir, "rejections.jsonl"))
	if err != nil || !strings.Contains(string(diag), `"msg":"annotation rejected"`) {
		t.Fatalf("expected rejection diagnostics, got %q (%v)", diag, err)
	}
	// #nosec G304 -- path is under the test TempDir.
	prom, err := os.ReadFile(filepath.Join(h.dir, "rollup.prom"))
	if err != nil || !strings.Contains(string(prom), "rollup_") {
		t.Fatalf("expected metrics textfile, got %v", err)
	}
}

func TestRunIncludeNonMouse(t *testing.T) {
	h := newHarness(t)
	code, _, stderr := h.run(t, "run", "--config", h.config, "--variant", "phenotype-marker", "--include-non-mouse")
	if code != rollup.ExitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(h.read(t, "phenotype-marker.nonmouse.txt"), testutil.HumanAPP) {
		t.Fatalf("expected APP in non-mouse stream")
	}
	if strings.Contains(h.read(t, "phenotype-marker.txt"), testutil.HumanAPP) {
		t.Fatalf("APP leaked into standard stream")
	}
}

func TestRunUnconfiguredVariantWithOutput(t *testing.T) {
	h := newHarness(t)
	code, _, stderr := h.run(t, "run", "--config", h.config, "--variant", "phenotype-allele", "--output", "pa.txt")
	if code != rollup.ExitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if h.read(t, "pa.txt") == "" {
		t.Fatalf("expected phenotype-allele output")
	}
}

func TestRunSkipsExitTwo(t *testing.T) {
	h := newHarness(t)
	h.src.Annotation(950, testutil.DiseaseAnnotType, 300, 500, "")
	code, _, stderr := h.run(t, "run", "--config", h.config, "--variant", "disease-marker")
	if code != rollup.ExitSkipped {
		t.Fatalf("expected exit 2, got %d: %s", code, stderr)
	}
	if !strings.Contains(h.read(t, "disease-marker.txt"), "\t900\t") {
		t.Fatalf("valid records must still publish")
	}
}

func TestRunFatalErrors(t *testing.T) {
	h := newHarness(t)
	cases := map[string][]string{
		"unknown variant":      {"run", "--config", h.config, "--variant", "go-term"},
		"output with all":      {"run", "--config", h.config, "--variant", "all", "--output", "x.txt"},
		"missing config":       {"run", "--config", filepath.Join(h.dir, "missing.yaml"), "--variant", "all"},
		"unconfigured variant": {"run", "--config", h.config, "--variant", "phenotype-allele"},
	}
	for name, args := range cases {
		if code, _, _ := h.run(t, args...); code != rollup.ExitFatal {
			t.Fatalf("%s: expected exit 1, got %d", name, code)
		}
	}
}

func TestRunSourceFailurePublishesNothing(t *testing.T) {
	h := newHarness(t)
	h.src.Exec(`DROP TABLE evidence_property`)
	code, _, stderr := h.run(t, "run", "--config", h.config, "--variant", "disease-marker")
	if code != rollup.ExitFatal || !strings.Contains(stderr, "source fetch failed") {
		t.Fatalf("expected fatal source error, got %d: %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(h.root, "disease-marker.txt")); !os.IsNotExist(err) {
		t.Fatalf("nothing should be published: %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	h := newHarness(t)
	if code, _, stderr := h.run(t, "run", "--config", h.config, "--variant", "disease-marker"); code != rollup.ExitOK {
		t.Fatalf("run: %d %s", code, stderr)
	}
	code, stdout, stderr := h.run(t, "check", "--config", h.config, "--variant", "disease-marker")
	if code != rollup.ExitOK {
		t.Fatalf("check: %d %s %s", code, stdout, stderr)
	}
	tampered := strings.Replace(h.read(t, "disease-marker.txt"), "\t900\t", "\t905\t", 1)
	if err := os.WriteFile(filepath.Join(h.root, "tampered.txt"), []byte(tampered), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	code, stdout, _ = h.run(t, "check", "--config", h.config, "--variant", "disease-marker", "--file", "tampered.txt")
	if code != rollup.ExitFatal || !strings.Contains(stdout, "annotation 905 has type") {
		t.Fatalf("expected tampered file to fail, got %d: %s", code, stdout)
	}
}

func TestSchemaCommand(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"rollupload", "schema", "--dsn", filepath.Join(dir, "fresh.db")}, &stdout, &stderr)
	if code != rollup.ExitOK || !strings.Contains(stdout.String(), "applied 00001_source_schema.sql\n") || !strings.HasSuffix(stdout.String(), "schema at version 1\n") {
		t.Fatalf("schema: %d %s %s", code, stdout.String(), stderr.String())
	}
}

func TestMainUsesExitFunc(t *testing.T) {
	orig, origArgs := exitFunc, os.Args
	defer func() { exitFunc, os.Args = orig, origArgs }()
	got := -1
	exitFunc = func(code int) { got = code }
	os.Args = []string{"rollupload", "schema"}
	main()
	if got != rollup.ExitFatal {
		t.Fatalf("expected missing --dsn to exit 1, got %d", got)
	}
}
