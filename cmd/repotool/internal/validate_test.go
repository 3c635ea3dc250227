package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestValidateCmd(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "component.json"),
		`{"repo": "https://github.com/Kindred-Systems/root"}`)
	writeFile(t, filepath.Join(tmpDir, "widget", "component.json"),
		`{"repo": "https://github.com/Kindred-Systems/widget"}`)

	b := bytes.NewBufferString("")
	cmd := NewRootCmd()
	cmd.SetOut(b)
	cmd.SetArgs([]string{"validate", tmpDir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("failed to execute validate command: %v", err)
	}

	expected := "Validation successful!"
	if !strings.Contains(b.String(), expected) {
		t.Errorf("expected output to contain %q, got %q", expected, b.String())
	}
}

func TestValidateCmdReportsEveryFailure(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "component.json"),
		`{"components": [{"repo": ""}]}`)
	writeFile(t, filepath.Join(tmpDir, "widget", "component.json"), `{"tier": "Tier 2"}`)

	b := bytes.NewBufferString("")
	cmd := NewRootCmd()
	cmd.SetOut(b)
	cmd.SetErr(b)
	cmd.SetArgs([]string{"validate", tmpDir})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	output := b.String()
	if !strings.Contains(output, "missing repo field") {
		t.Errorf("expected missing repo finding, got %q", output)
	}
	if !strings.Contains(output, "repo field is empty") {
		t.Errorf("expected empty repo finding, got %q", output)
	}
	if !strings.Contains(err.Error(), "3 validation failure(s)") {
		t.Errorf("expected aggregated failure count, got %q", err.Error())
	}
}

func TestValidateCmdSingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "component.json")
	writeFile(t, path, `{"repo": "https://github.com/Kindred-Systems/solo"}`)

	b := bytes.NewBufferString("")
	cmd := NewRootCmd()
	cmd.SetOut(b)
	cmd.SetArgs([]string{"validate", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("failed to execute validate command: %v", err)
	}
}

func TestValidateCmdWithConfigRules(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "repotool.yml"), `version: "0.1"
host:
  owner: acme
  prefix: https://github.com/acme/
rules:
  - '!repo.endsWith("-old")'
`)
	writeFile(t, filepath.Join(tmpDir, "component.json"),
		`{"repo": "https://github.com/acme/widget-old"}`)

	b := bytes.NewBufferString("")
	cmd := NewRootCmd()
	cmd.SetOut(b)
	cmd.SetErr(b)
	cmd.SetArgs([]string{"validate", tmpDir})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected policy rule failure")
	}
	if !strings.Contains(b.String(), "policy rule not satisfied") {
		t.Errorf("expected policy finding in output, got %q", b.String())
	}
}
