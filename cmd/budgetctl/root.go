package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budget-engine/internal/config"
	"budget-engine/internal/model"
	"budget-engine/internal/style"
)

var (
	budgetFile   string
	settingsFile string
	cfg          *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "budgetctl",
	Short: "Plan personnel costs against a fixed budget",
	Long: `budgetctl keeps a budget document in a JSON file: staff records,
their derived working hours and costs, and the remaining budget.

Every command that changes the document loads it under a file lock,
applies one change and writes it back atomically.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if budgetFile != "" {
			cfg.BudgetFile = budgetFile
		}
		if settingsFile != "" {
			cfg.SettingsFile = settingsFile
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&budgetFile, "file", "f", "", "Budget document (default $BUDGET_FILE or budget.json)")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "Settings file (.toml or .yaml) used for new documents and missing keys")
}

func execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", style.Error.Render("Error:"), err)
		return 1
	}
	return 0
}

func settings() (model.Settings, error) {
	return cfg.Settings()
}
