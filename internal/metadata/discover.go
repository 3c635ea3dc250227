package metadata

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// LoadIgnorePatterns reads .gitignore at root, dropping blank lines and
// comments. A missing file yields no patterns.
func LoadIgnorePatterns(root string) ([]string, error) {
	file, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.TrimSuffix(line, "/"))
	}
	return patterns, scanner.Err()
}

func ignored(relPath string, patterns []string) bool {
	base := filepath.Base(relPath)
	for _, pattern := range patterns {
		if ok, _ := doublestar.PathMatch(pattern, relPath); ok {
			return true
		}
		if ok, _ := doublestar.PathMatch(pattern, base); ok {
			return true
		}
		if ok, _ := doublestar.PathMatch("**/"+pattern, relPath); ok {
			return true
		}
	}
	return false
}

// Discover walks the tree under root and returns the path of every
// descriptor file named filename, in lexical order. Directories matching a
// .gitignore pattern are not descended into, and .git directories are always
// skipped.
func Discover(root, filename string) ([]string, error) {
	patterns, err := LoadIgnorePatterns(root)
	if err != nil {
		return nil, err
	}

	var found []string
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			if rel != "." && ignored(filepath.ToSlash(rel), patterns) {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Name() == filename && !ignored(filepath.ToSlash(rel), patterns) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
