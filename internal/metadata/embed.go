package metadata

import (
	"fmt"
	"path/filepath"

	"github.com/kindred-systems/repotool/internal/errors"
)

// Embed loads the descriptor at rootPath and resolves every path component
// reference into an inline descriptor, depth first. The result is
// self-contained: no path references remain. Embed never writes; callers
// persist the result with Save if they want it on disk.
func Embed(rootPath string) (*Descriptor, error) {
	descriptor, err := Load(rootPath)
	if err != nil {
		return nil, err
	}
	if err := embedRecursive(descriptor, descriptor.Dir(), []string{descriptor.Path}); err != nil {
		return nil, err
	}
	return descriptor, nil
}

// embedRecursive resolves the components of a single descriptor. The stack
// holds the absolute path of every descriptor currently being resolved;
// revisiting one of them is a cycle and fails the whole operation rather
// than recursing forever.
func embedRecursive(descriptor *Descriptor, baseDir string, stack []string) error {
	for i := range descriptor.Components {
		component := &descriptor.Components[i]

		if !component.IsPath() {
			if component.Inline.Type == "project" {
				return errors.New(errors.CodeValidation,
					fmt.Sprintf("cannot embed project descriptor as a component of %s", stack[len(stack)-1]))
			}
			if err := embedRecursive(component.Inline, baseDir, stack); err != nil {
				return err
			}
			continue
		}

		path := resolveReference(baseDir, component.Ref)
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}

		for j, inProgress := range stack {
			if inProgress == absPath {
				return &errors.CycleError{Path: append(stack[j:], absPath)}
			}
		}

		child, err := Load(path)
		if err != nil {
			return err
		}
		if child.Type == "project" {
			return errors.New(errors.CodeValidation,
				fmt.Sprintf("cannot embed project descriptor %s as a component of %s", path, stack[len(stack)-1]))
		}

		if rel, err := filepath.Rel(baseDir, absPath); err == nil {
			child.File = filepath.ToSlash(rel)
		}

		if err := embedRecursive(child, child.Dir(), append(stack, absPath)); err != nil {
			return err
		}

		component.Inline = child
		component.Ref = ""
	}
	return nil
}
