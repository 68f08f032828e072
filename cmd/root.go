package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "door-dashboard",
	Short: "Admin dashboard for a face recognition door access device",
	Long: `Door Dashboard is the administration tool for a face recognition
door access device. It serves the web dashboard for registering and
removing users, keeps the on-disk face registry in sync with the
database, and shows recent door access events.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
