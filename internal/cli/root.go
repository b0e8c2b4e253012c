package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Episodic memory with biological reranking for personal agents",
	Long: "Engram stores an agent's episodic memories with embedding vectors and\n" +
		"recalls them by a blend of semantic similarity, forgetting-curve\n" +
		"retrievability, and emotional salience. Recalled memories get stronger.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(recentCmd)
}
