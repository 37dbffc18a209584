// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/reposcope/reposcope/internal/config"
	"github.com/reposcope/reposcope/internal/domain"
	"github.com/reposcope/reposcope/internal/gateway"
	"github.com/reposcope/reposcope/internal/logging"
	"github.com/reposcope/reposcope/internal/snapshot"
	"github.com/reposcope/reposcope/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:   "reposcope [owner/repo ...]",
	Short: "Collect and analyze GitHub pull request activity",
	Long: `reposcope collects pull request, contributor and profile data for a set
of GitHub repositories, saves a snapshot, and reports summary statistics,
activity trends and charts.

Repositories are given as positional owner/repo arguments; without any, a
built-in set of well-known repositories is analyzed. A GITHUB_TOKEN must be
exported (or placed in a .env file) before running.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCollect,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("snapshot", "reposcope_data.json", "Path of the snapshot file")
	rootCmd.PersistentFlags().String("out", "output", "Directory for the chart images")
	rootCmd.PersistentFlags().String("bucket", "week", "Time series bucket: day, week or month")
	rootCmd.Flags().Int("max-profiles", 10, "Maximum contributor profiles to scrape per repository")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := logging.New(cfg.Logger, verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	outDir, _ := cmd.Flags().GetString("out")
	maxProfiles, _ := cmd.Flags().GetInt("max-profiles")
	bucketName, _ := cmd.Flags().GetString("bucket")
	bucket, err := domain.ParseBucket(bucketName)
	if err != nil {
		return err
	}

	repos := args
	if len(repos) == 0 {
		repos = config.DefaultRepos
	}
	if err := config.ValidateRepos(repos); err != nil {
		return err
	}

	pterm.DefaultSection.Println("Collecting data from GitHub")
	pterm.Info.Printfln("Repositories: %d", len(repos))

	gw, err := gateway.NewGitHubGateway(cfg, logger)
	if err != nil {
		return err
	}
	collector := usecase.NewCollector(gw, logger, maxProfiles)
	collection, err := collector.Collect(cmd.Context(), repos)
	if err != nil {
		// An exhausted rate limit ends the run early but everything already
		// gathered is still worth saving and reporting.
		var rateErr *gateway.RateLimitError
		if !errors.As(err, &rateErr) {
			return err
		}
		pterm.Warning.Printfln("Rate limit exhausted, continuing with partial data (resets at %s)",
			rateErr.ResetAt.Format("15:04:05 MST"))
	}

	if err := snapshot.Save(snapshotPath, collection); err != nil {
		return err
	}
	pterm.Success.Printfln("Snapshot saved to %s", snapshotPath)

	return report(collection, bucket, outDir, logger)
}
