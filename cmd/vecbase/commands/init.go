package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/d65v/vecbase"
)

var initOut string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively write a config file",
	Long: `Walk through the store settings and write them as a YAML config file.

The resulting file is consumed with --config, or copied into VECBASE_*
environment variables.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := vecbase.DefaultConfig()

		dimStr := strconv.Itoa(cfg.Dim)
		if err := survey.AskOne(&survey.Input{
			Message: "Vector dimensionality:",
			Default: dimStr,
		}, &dimStr, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
		dim, err := strconv.Atoi(dimStr)
		if err != nil || dim <= 0 {
			return fmt.Errorf("dim must be a positive integer, got %q", dimStr)
		}
		cfg.Dim = dim

		if err := survey.AskOne(&survey.Select{
			Message: "Similarity metric:",
			Options: []string{"cosine", "euclidean", "dot"},
			Default: cfg.Metric,
		}, &cfg.Metric); err != nil {
			return err
		}

		maxStr := strconv.Itoa(cfg.MaxElements)
		if err := survey.AskOne(&survey.Input{
			Message: "Max elements:",
			Default: maxStr,
		}, &maxStr); err != nil {
			return err
		}
		maxElements, err := strconv.Atoi(maxStr)
		if err != nil || maxElements <= 0 {
			return fmt.Errorf("max elements must be a positive integer, got %q", maxStr)
		}
		cfg.MaxElements = maxElements

		if err := survey.AskOne(&survey.Input{
			Message: "Storage path:",
			Default: cfg.StoragePath,
		}, &cfg.StoragePath); err != nil {
			return err
		}

		if _, err := os.Stat(initOut); err == nil {
			overwrite := false
			if err := survey.AskOne(&survey.Confirm{
				Message: fmt.Sprintf("%s exists. Overwrite?", initOut),
			}, &overwrite); err != nil {
				return err
			}
			if !overwrite {
				fmt.Println("aborted.")
				return nil
			}
		}

		if err := cfg.SaveFile(initOut); err != nil {
			return err
		}
		color.New(color.FgGreen).Printf("wrote %s\n", initOut)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initOut, "out", "vecbase.yaml", "config file to write")
	rootCmd.AddCommand(initCmd)
}
