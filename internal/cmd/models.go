package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"parley/internal/capability"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models in the builtin capability registry",
		RunE:  runModels,
	}
}

func init() {
	rootCmd.AddCommand(newModelsCmd())
}

func runModels(cmd *cobra.Command, args []string) error {
	refs := capability.NewBuiltinRegistry().KnownModels()
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Provider != refs[j].Provider {
			return refs[i].Provider < refs[j].Provider
		}
		return refs[i].Model < refs[j].Model
	})

	out := cmd.OutOrStdout()
	for _, ref := range refs {
		fmt.Fprintf(out, "%s/%s\n", ref.Provider, ref.Model)
	}
	return nil
}
