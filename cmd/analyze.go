package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/reposcope/reposcope/internal/config"
	"github.com/reposcope/reposcope/internal/domain"
	"github.com/reposcope/reposcope/internal/logging"
	"github.com/reposcope/reposcope/internal/snapshot"
	"github.com/reposcope/reposcope/internal/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Re-run the analysis from a saved snapshot",
	Long: `analyze loads a previously saved snapshot and recomputes the summary
statistics, trend analysis and charts from it. No GitHub access happens;
neither a token nor network connectivity is required.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := logging.New(analyzeLoggerConfig(), verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	outDir, _ := cmd.Flags().GetString("out")
	bucketName, _ := cmd.Flags().GetString("bucket")
	bucket, err := domain.ParseBucket(bucketName)
	if err != nil {
		return err
	}

	collection, err := snapshot.Load(snapshotPath)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Println("Analyzing saved snapshot")
	pterm.Info.Printfln("Loaded %d repositories from %s", len(collection.Repos), snapshotPath)

	if err := report(collection, bucket, outDir, logger); err != nil {
		return err
	}

	pterm.DefaultSection.Println("Additional statistics")
	printExtendedStats(usecase.ComputeSummaries(collection))
	return nil
}

// analyzeLoggerConfig builds the logger settings straight from the
// environment. Unlike collection, analysis works without a token, so the
// full configuration with its token check is deliberately not loaded here.
func analyzeLoggerConfig() config.LoggerConfig {
	return config.LoggerConfig{
		Level:  config.GetEnv("LOG_LEVEL", "info"),
		Format: config.GetEnv("LOG_FORMAT", "console"),
	}
}
