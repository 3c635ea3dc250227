package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kindred-systems/repotool/internal/config"
	"github.com/kindred-systems/repotool/internal/metadata"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repotool",
		Short: "Repotool manages component repository metadata across a source tree.",
		Long: `Repotool is a command-line tool for repository metadata management.
It validates that component descriptors declare a repository, embeds nested
component metadata inline into parent descriptors, and creates missing
repositories on the configured host.`,
	}

	cmd.PersistentFlags().String("config", "", "Path to a repotool.yml config file (defaults to <root>/repotool.yml)")
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewWalkCmd())
	cmd.AddCommand(NewUpdateCmd())
	cmd.AddCommand(NewVersionCmd())
	cmd.AddCommand(NewCompletionCmd())

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig honors the --config flag and otherwise looks for repotool.yml
// at root.
func loadConfig(cmd *cobra.Command, root string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path, _ = cmd.InheritedFlags().GetString("config")
	}
	if path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(root)
}

// collectDescriptors resolves the positional path argument into the scan
// root and the descriptor files to operate on. A directory argument triggers
// a discovery walk; a file argument names a single descriptor.
func collectDescriptors(path, filename string) (string, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	if !info.IsDir() {
		return filepath.Dir(path), []string{path}, nil
	}

	found, err := metadata.Discover(path, filename)
	if err != nil {
		return "", nil, err
	}
	if len(found) == 0 {
		return "", nil, fmt.Errorf("no %s files found under %s", filename, path)
	}
	return path, found, nil
}
