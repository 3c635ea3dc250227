// Package git shells out to the git client for working-copy operations.
package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

func run(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s failed: %w\n%s", args[0], err, string(output))
	}
	return nil
}

// IsRepo reports whether dir is the top of a git working copy.
func IsRepo(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

func Init(dir string) error {
	return run(dir, "init")
}

func AddRemote(dir, name, url string) error {
	return run(dir, "remote", "add", name, url)
}

// CommitAll stages everything under dir and commits it.
func CommitAll(dir, message string) error {
	if err := run(dir, "add", "."); err != nil {
		return err
	}
	return run(dir, "commit", "-m", message)
}

func SetBranch(dir, branch string) error {
	return run(dir, "branch", "-M", branch)
}

func Push(dir, remote, branch string) error {
	return run(dir, "push", "-u", remote, branch)
}

// AddSubmodule registers url as a submodule of the repository at parentDir,
// checked out at path (relative to parentDir), and commits the registration.
func AddSubmodule(parentDir, url, path string) error {
	if err := run(parentDir, "submodule", "add", url, path); err != nil {
		return err
	}
	return run(parentDir, "commit", "-am", fmt.Sprintf("Add %s as submodule", path))
}
