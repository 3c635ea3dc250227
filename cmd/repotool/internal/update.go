package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kindred-systems/repotool/internal/errors"
	"github.com/kindred-systems/repotool/internal/githost"
	"github.com/kindred-systems/repotool/internal/provision"
)

func NewUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [path]",
		Short: "Create and initialize missing repositories",
		Long: `Update checks every component descriptor against the configured host.
Repositories that do not exist are created when --create-missing is set or
the operator confirms, then the component directory is initialized as a git
working copy and registered as a submodule of its parent repository. It also
fills in a default tier on descriptors missing one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			createMissing, _ := cmd.Flags().GetBool("create-missing")
			nonInteractive, _ := cmd.Flags().GetBool("non-interactive")
			tier, _ := cmd.Flags().GetString("tier")

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
			if tier == "" {
				tier = cfg.Defaults.Tier
			}

			host, err := githost.NewGitHub(cfg.Host.Owner, os.Getenv("GITHUB_TOKEN"), cfg.Host.BaseURL)
			if err != nil {
				return err
			}

			var prompter provision.Prompter
			if !nonInteractive {
				prompter = &stdinPrompter{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
			}

			provisioner := &provision.Provisioner{
				Host:     host,
				Config:   cfg,
				Prompter: prompter,
				InitWC:   provision.InitWorkingCopy,
			}

			results := provisioner.EnsureTree(cmd.Context(), paths, provision.Options{
				CreateMissing:  createMissing,
				NonInteractive: nonInteractive,
				Tier:           tier,
			})

			failed := 0
			for _, result := range results {
				line := fmt.Sprintf("%s: %s", result.Descriptor, result.Status)
				if result.Detail != "" {
					line += " (" + result.Detail + ")"
				}
				if result.Err != nil {
					line += ": " + result.Err.Error()
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
				if result.Failed() {
					failed++
				}
			}

			if failed > 0 {
				return errors.New(errors.CodeProvision,
					fmt.Sprintf("%d of %d repositories missing or failed", failed, len(results)))
			}
			return nil
		},
	}
	cmd.Flags().Bool("create-missing", false, "Create missing repositories without prompting")
	cmd.Flags().Bool("non-interactive", false, "Suppress all prompts; report missing repositories instead of creating them")
	cmd.Flags().String("tier", "", "Tier value assigned to descriptors missing one (defaults to the configured tier)")
	return cmd
}
