package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow-api/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "taskflow-configure",
		Short: "Configuration tool for TaskFlow API",
		Long:  "CLI tool for testing backend connectivity and the suggestion pipeline",
	}

	rootCmd.AddCommand(commands.NewTestCmd())
	rootCmd.AddCommand(commands.NewSuggestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
