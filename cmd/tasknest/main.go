package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tasknest/core/cmd/tasknest/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tasknest",
		Short: "TaskNest API Server",
		Long:  `TaskNest is a personal task management service with hierarchical tasks, recurring routines and a local database.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
