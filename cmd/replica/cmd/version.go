package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version은 빌드 시 -ldflags "-X .../cmd.version=..."로 지정합니다
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "버전을 출력합니다",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "replica version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
