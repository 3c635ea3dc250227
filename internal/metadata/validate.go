package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toolerrors "github.com/kindred-systems/repotool/internal/errors"
	"github.com/kindred-systems/repotool/internal/policy"
)

// Finding is a single validation failure, tagged with the descriptor it was
// found in.
type Finding struct {
	Descriptor string
	Reason     string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Descriptor, f.Reason)
}

// ValidationResult aggregates every failure across a descriptor tree, so one
// pass surfaces all problems instead of the first.
type ValidationResult struct {
	Findings []Finding
}

func (r *ValidationResult) Valid() bool {
	return len(r.Findings) == 0
}

func (r *ValidationResult) add(descriptor, reason string) {
	r.Findings = append(r.Findings, Finding{Descriptor: descriptor, Reason: reason})
}

// Validator checks that every descriptor reachable from a root declares a
// well-formed repo field. It performs no writes.
type Validator struct {
	// Prefix, when set, is the URL prefix every repo field must share.
	Prefix string
	// Rules are optional policy expressions each descriptor must satisfy.
	Rules *policy.Engine
}

// ValidateFile validates the descriptor at path and, recursively, every
// nested component it references. The root file being unreadable or
// malformed is an error; failures in nested references are findings.
func (v *Validator) ValidateFile(path string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, toolerrors.Wrap(err, toolerrors.CodeParse, fmt.Sprintf("could not read descriptor %s", path))
	}
	if !json.Valid(data) {
		return nil, toolerrors.New(toolerrors.CodeParse, fmt.Sprintf("could not parse descriptor %s", path))
	}

	result := &ValidationResult{}
	violations, err := CheckSchema(data)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		for _, violation := range violations {
			result.add(path, violation)
		}
		return result, nil
	}

	descriptor, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := v.validateTree(descriptor, path, descriptor.Dir(), []string{descriptor.Path}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Validate validates an in-memory descriptor tree. Path references inside
// components resolve relative to the descriptor's own location.
func (v *Validator) Validate(descriptor *Descriptor) (*ValidationResult, error) {
	result := &ValidationResult{}
	id := descriptor.Path
	if id == "" {
		id = "<inline>"
	}
	var stack []string
	if descriptor.Path != "" {
		stack = []string{descriptor.Path}
	}
	if err := v.validateTree(descriptor, id, descriptor.Dir(), stack, result); err != nil {
		return nil, err
	}
	return result, nil
}

// validateTree checks one descriptor and recurses into its components.
// baseDir is the directory of the nearest enclosing descriptor file, against
// which path references resolve (inline descriptors have no location of
// their own).
func (v *Validator) validateTree(descriptor *Descriptor, id, baseDir string, stack []string, result *ValidationResult) error {
	v.checkRepo(descriptor, id, result)

	for i, component := range descriptor.Components {
		childID := fmt.Sprintf("%s: components[%d]", id, i)
		if component.IsPath() {
			if err := v.validateReference(component.Ref, childID, baseDir, stack, result); err != nil {
				return err
			}
			continue
		}
		if component.Inline.Type == "project" {
			result.add(childID, "project descriptor cannot be nested as a component")
		}
		if err := v.validateTree(component.Inline, childID, baseDir, stack, result); err != nil {
			return err
		}
	}
	return nil
}

// validateReference resolves a path component reference and validates the
// descriptor behind it. An unreadable or malformed reference is a finding
// against the referencing entry, not an abort.
func (v *Validator) validateReference(ref, id, baseDir string, stack []string, result *ValidationResult) error {
	path := resolveReference(baseDir, ref)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	for _, inProgress := range stack {
		if inProgress == absPath {
			result.add(id, fmt.Sprintf("component reference cycle through %s", ref))
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.add(id, fmt.Sprintf("unreadable component reference %s: %v", ref, err))
		return nil
	}
	if !json.Valid(data) {
		result.add(id, fmt.Sprintf("malformed component reference %s", ref))
		return nil
	}
	violations, err := CheckSchema(data)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		for _, violation := range violations {
			result.add(path, violation)
		}
		return nil
	}

	child, err := Load(path)
	if err != nil {
		result.add(id, fmt.Sprintf("malformed component reference %s: %v", ref, err))
		return nil
	}
	if child.Type == "project" {
		result.add(id, fmt.Sprintf("project descriptor %s cannot be nested as a component", ref))
	}
	return v.validateTree(child, path, child.Dir(), append(stack, absPath), result)
}

func (v *Validator) checkRepo(descriptor *Descriptor, id string, result *ValidationResult) {
	if descriptor.Repo == "" {
		if descriptor.hasRepo {
			result.add(id, "repo field is empty")
		} else {
			result.add(id, "missing repo field")
		}
		return
	}

	if v.Prefix != "" && !strings.HasPrefix(descriptor.Repo, v.Prefix) {
		result.add(id, fmt.Sprintf("repo %q does not match required prefix %s", descriptor.Repo, v.Prefix))
	}

	failed, err := v.Rules.Evaluate(policy.Inputs{
		Repo:   descriptor.Repo,
		Kind:   descriptor.Type,
		Tier:   descriptor.Tier,
		Path:   descriptor.Path,
		Prefix: v.Prefix,
	})
	if err != nil {
		result.add(id, err.Error())
		return
	}
	for _, expr := range failed {
		result.add(id, fmt.Sprintf("policy rule not satisfied: %s", expr))
	}
}

// resolveReference turns a component reference into a descriptor file path.
// A reference may name the file itself or the directory containing it.
func resolveReference(baseDir, ref string) string {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, ref)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, DefaultFilename)
	}
	return path
}
