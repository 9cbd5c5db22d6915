// Command libctl là operator CLI: migrate schema, seed catalog, chạy sweep thủ công,
// xem trước tiền phạt và tạo tài khoản staff.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"library-lite/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "libctl",
	Short: "Operator tooling for Library Lite",
	Long: `libctl runs operator tasks against the configured database and Redis.

Configuration is read the same way as the API server: .env file, APP_CONFIG_FILE
YAML overlay, then environment variables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
		}
		logger.Init(env)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, sweepCmd, fineCmd, createStaffCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
