package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunInit_CreatesProjectFiles(t *testing.T) {
	dir := t.TempDir()
	if err := runInit(initCmd, []string{dir}); err != nil {
		t.Fatalf("runInit() error = %v", err)
	}

	for _, p := range []string{
		".agentpipe.yaml",
		filepath.Join(".agentpipe", "agents.yaml"),
		filepath.Join(".agentpipe", "context"),
		".gitignore",
	} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Errorf("expected %s: %v", p, err)
		}
	}

	data, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if !strings.Contains(string(data), ".agentpipe/state.db*") {
		t.Errorf(".gitignore missing journal entry:\n%s", data)
	}
}

func TestRunInit_KeepsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".agentpipe.yaml")
	if err := os.WriteFile(path, []byte("custom: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := runInit(initCmd, []string{dir}); err != nil {
		t.Fatalf("runInit() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "custom: true\n" {
		t.Errorf("existing config overwritten: %q", data)
	}
}

func TestUpdateGitignore_Idempotent(t *testing.T) {
	dir := t.TempDir()
	if err := updateGitignore(dir); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err := updateGitignore(dir); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if string(first) != string(second) {
		t.Errorf("second update changed .gitignore:\n%s", second)
	}
}
