package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:           "syndicate",
	Short:         "Syndicate news articles to a Blogger blog",
	Long:          "syndicate polls a news source, skips articles that were already posted, and publishes the rest to Blogger.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("syndicate %s (commit: %s)\n", version, commit)
	},
}

// 退出码：0 成功（包括没有新文章），非 0 失败
func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			rootCmd.PrintErrln("Error:", err)
		}
		os.Exit(1)
	}
}
