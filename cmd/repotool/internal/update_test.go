package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/kindred-systems/repotool/internal/metadata"
)

// startHostServer fakes the hosting API with the given pre-existing
// repositories, keyed by name.
func startHostServer(t *testing.T, repos map[string]string) *httptest.Server {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/api/v3/repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["repo"]
		url, ok := repos[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
			return
		}
		fmt.Fprintf(w, `{"name": %q, "html_url": %q}`, name, url)
	}).Methods("GET")
	router.HandleFunc("/api/v3/orgs/{org}/repos", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		url := fmt.Sprintf("https://github.com/Kindred-Systems/%s", body.Name)
		repos[body.Name] = url
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"name": %q, "html_url": %q}`, body.Name, url)
	}).Methods("POST")

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func setupUpdateTree(t *testing.T, hostURL string) string {
	t.Helper()
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "repotool.yml"), fmt.Sprintf(`version: "0.1"
host:
  owner: Kindred-Systems
  prefix: https://github.com/Kindred-Systems/
  base_url: %s
`, hostURL))
	writeFile(t, filepath.Join(tmpDir, "widget", "component.json"), `{}`)
	// Pretend the working copy is already initialized so the test never
	// shells out to git.
	if err := os.MkdirAll(filepath.Join(tmpDir, "widget", ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	return tmpDir
}

func TestUpdateCmdMissingNotCreated(t *testing.T) {
	server := startHostServer(t, map[string]string{})
	tmpDir := setupUpdateTree(t, server.URL)

	b := bytes.NewBufferString("")
	cmd := NewRootCmd()
	cmd.SetOut(b)
	cmd.SetErr(b)
	cmd.SetArgs([]string{"update", tmpDir, "--non-interactive"})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected non-zero result for a missing repository")
	}
	if !strings.Contains(b.String(), "missing, not created") {
		t.Errorf("expected missing-not-created report, got %q", b.String())
	}
}

func TestUpdateCmdCreateMissing(t *testing.T) {
	repos := map[string]string{}
	server := startHostServer(t, repos)
	tmpDir := setupUpdateTree(t, server.URL)

	b := bytes.NewBufferString("")
	cmd := NewRootCmd()
	cmd.SetOut(b)
	cmd.SetArgs([]string{"update", tmpDir, "--create-missing", "--non-interactive"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("failed to execute update command: %v\n%s", err, b.String())
	}
	if !strings.Contains(b.String(), "created") {
		t.Errorf("expected created report, got %q", b.String())
	}
	if _, ok := repos["widget"]; !ok {
		t.Errorf("expected repository widget to be created on the host")
	}

	descriptor, err := metadata.Load(filepath.Join(tmpDir, "widget", "component.json"))
	if err != nil {
		t.Fatalf("failed to reload descriptor: %v", err)
	}
	if descriptor.Repo != "https://github.com/Kindred-Systems/widget" {
		t.Errorf("repo field not written back: %q", descriptor.Repo)
	}
	if descriptor.Tier != "unassigned" {
		t.Errorf("expected configured tier default, got %q", descriptor.Tier)
	}
}

func TestUpdateCmdExisting(t *testing.T) {
	server := startHostServer(t, map[string]string{
		"widget": "https://github.com/Kindred-Systems/widget",
	})
	tmpDir := setupUpdateTree(t, server.URL)
	writeFile(t, filepath.Join(tmpDir, "widget", "component.json"),
		`{"repo": "https://github.com/Kindred-Systems/widget", "tier": "Tier 2"}`)

	b := bytes.NewBufferString("")
	cmd := NewRootCmd()
	cmd.SetOut(b)
	cmd.SetArgs([]string{"update", tmpDir, "--non-interactive"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("failed to execute update command: %v\n%s", err, b.String())
	}
	if !strings.Contains(b.String(), "exists") {
		t.Errorf("expected exists report, got %q", b.String())
	}
}

func TestUpdateCmdConflictIsWarning(t *testing.T) {
	server := startHostServer(t, map[string]string{
		"widget": "https://github.com/Kindred-Systems/widget",
	})
	tmpDir := setupUpdateTree(t, server.URL)
	writeFile(t, filepath.Join(tmpDir, "widget", "component.json"),
		`{"repo": "https://github.com/elsewhere/widget"}`)

	b := bytes.NewBufferString("")
	cmd := NewRootCmd()
	cmd.SetOut(b)
	cmd.SetArgs([]string{"update", tmpDir, "--non-interactive"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("conflicting configuration must not fail the run: %v", err)
	}
	if !strings.Contains(b.String(), "conflicting configuration") {
		t.Errorf("expected conflict warning, got %q", b.String())
	}
}

func TestUpdateCmdPromptDeclined(t *testing.T) {
	server := startHostServer(t, map[string]string{})
	tmpDir := setupUpdateTree(t, server.URL)

	b := bytes.NewBufferString("")
	cmd := NewRootCmd()
	cmd.SetOut(b)
	cmd.SetErr(b)
	cmd.SetIn(strings.NewReader("n\n"))
	cmd.SetArgs([]string{"update", tmpDir})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected non-zero result after declined prompt")
	}
	if !strings.Contains(b.String(), "[Y/n]") {
		t.Errorf("expected a confirmation prompt, got %q", b.String())
	}
	if !strings.Contains(b.String(), "missing, not created") {
		t.Errorf("expected missing-not-created report, got %q", b.String())
	}
}
