package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"parley/internal/capability"
)

func newCapabilitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Show the merged capabilities for a roster of models",
		Long: `Compute the strict capability merge for a set of participants. A
capability is available to the session only when every listed model
supports it.

Participants are given as provider/model pairs:

  parley capabilities -p anthropic/claude-sonnet-4 -p openai/gpt-4o`,
		RunE: runCapabilities,
	}
	cmd.Flags().StringArrayP("participant", "p", nil, "participant as provider/model (repeatable)")
	return cmd
}

func init() {
	rootCmd.AddCommand(newCapabilitiesCmd())
}

func runCapabilities(cmd *cobra.Command, args []string) error {
	pairs, err := cmd.Flags().GetStringArray("participant")
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("at least one --participant is required")
	}

	refs := make([]capability.ModelRef, 0, len(pairs))
	for _, pair := range pairs {
		provider, model, ok := strings.Cut(pair, "/")
		if !ok || provider == "" || model == "" {
			return fmt.Errorf("invalid participant %q: expected provider/model", pair)
		}
		refs = append(refs, capability.ModelRef{Provider: provider, Model: model})
	}

	merged, err := capability.MergeStrict(capability.NewBuiltinRegistry(), refs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Merged capabilities for %d participant(s):\n", len(refs))
	fmt.Fprintf(out, "  web search:       %s\n", mark(merged.WebSearch))
	fmt.Fprintf(out, "  image upload:     %s\n", mark(merged.ImageUpload))
	fmt.Fprintf(out, "  document upload:  %s\n", mark(merged.DocumentUpload))
	fmt.Fprintf(out, "  image generation: %s\n", mark(merged.ImageGeneration))
	fmt.Fprintf(out, "  video generation: %s\n", mark(merged.VideoGeneration))
	return nil
}

func mark(enabled bool) string {
	if enabled {
		return "yes"
	}
	return "no"
}
