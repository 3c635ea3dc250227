package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kindred-systems/repotool/internal/errors"
	"github.com/kindred-systems/repotool/internal/metadata"
	"github.com/kindred-systems/repotool/internal/policy"
)

func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate repository fields in component descriptors",
		Long: `Validate checks that every component descriptor, including nested
components, declares a well-formed repo field. Given a directory, it scans
for descriptor files; given a file, it validates that descriptor and the
components it references. All failures across the tree are reported in one
pass.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}
			info, err := os.Stat(target)
			if err != nil {
				return err
			}
			root := target
			if !info.IsDir() {
				root = filepath.Dir(target)
			}

			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			_, paths, err := collectDescriptors(target, cfg.Metadata.Filename)
			if err != nil {
				return err
			}

			engine, err := policy.NewEngine(cfg.Rules)
			if err != nil {
				return err
			}
			validator := &metadata.Validator{Prefix: cfg.Host.Prefix, Rules: engine}

			failures := 0
			for _, path := range paths {
				result, err := validator.ValidateFile(path)
				if err != nil {
					return err
				}
				for _, finding := range result.Findings {
					failures++
					fmt.Fprintln(cmd.OutOrStdout(), finding.String())
				}
			}

			if failures > 0 {
				return errors.New(errors.CodeValidation,
					fmt.Sprintf("%d validation failure(s) across %d descriptor(s)", failures, len(paths)))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Validation successful!")
			return nil
		},
	}
	return cmd
}
