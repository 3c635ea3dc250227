package internal

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kindred-systems/repotool/internal/metadata"
)

func NewWalkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk <descriptor>",
		Short: "Embed nested component metadata inline",
		Long: `Walk loads a descriptor and replaces every path reference in its
components list with the fully resolved descriptor it points at, recursively.
The embedded result is printed as JSON, or written back with --write.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			write, _ := cmd.Flags().GetBool("write")
			output, _ := cmd.Flags().GetString("output")

			embedded, err := metadata.Embed(args[0])
			if err != nil {
				return err
			}

			if write {
				if err := metadata.Save(args[0], embedded); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated: %s\n", args[0])
				return nil
			}
			if output != "" {
				if err := metadata.Save(output, embedded); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote: %s\n", output)
				return nil
			}

			data, err := json.MarshalIndent(embedded, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().Bool("write", false, "Write the embedded descriptor back over the input file")
	cmd.Flags().StringP("output", "o", "", "Write the embedded descriptor to the given file")
	return cmd
}
