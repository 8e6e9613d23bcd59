package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRender_Files(t *testing.T) {
	data := filepath.Join(t.TempDir(), "data.csv")
	csv := "state,abbr,poverty,healthcare\nOhio,OH,14.2,10.1\nTexas,TX,18.0,15.3\n"
	if err := os.WriteFile(data, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	if _, err := execute(t, "render", "--log-level", "error", "--data", data, "--format", "svg,html,png", "--out", dir); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, name := range []string{"scatter.svg", "scatter.html", "scatter.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	svg, _ := os.ReadFile(filepath.Join(dir, "scatter.svg"))
	if !strings.Contains(string(svg), ">TX</text>") {
		t.Error("expected TX label in svg")
	}
}

func TestRender_LoadFailureWritesEmptyCanvas(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "render", "--log-level", "error", "--data", filepath.Join(dir, "missing.csv"), "--format", "svg", "--out", "-")
	if !errors.Is(err, errLoadFailed) {
		t.Fatalf("expected errLoadFailed, got %v", err)
	}
	if !strings.HasPrefix(out, "<svg") || strings.Contains(out, "<circle") {
		t.Errorf("expected an empty svg canvas, got %.120q", out)
	}
}

func TestRender_StdoutSingleFormat(t *testing.T) {
	if _, err := execute(t, "render", "--format", "svg,png", "--out", "-"); err == nil {
		t.Error("expected an error for several formats on stdout")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || !strings.HasPrefix(out, "healthscatter dev") {
		t.Errorf("version: %q, %v", out, err)
	}
}
