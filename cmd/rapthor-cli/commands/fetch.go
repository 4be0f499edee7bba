package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"rapthor-backend/lib/restyutil"
	"rapthor-backend/lib/serviceutil"
	"rapthor-backend/lib/timezone"
	"rapthor-backend/services/extraction"

	"github.com/mazen160/go-random"
	"github.com/spf13/cobra"
)

var (
	fetchDate      *string
	fetchTomorrow  *bool
	fetchWeek      *bool
	fetchThreshold *string
	fetchUsername  *string
	fetchJson      *bool
	fetchExports   exportFlags
)

func init() {
	fetchDate, fetchTomorrow = addTargetFlags(fetchCmd)
	fetchWeek = fetchCmd.Flags().Bool("week", false, "Keep the orders delivered during the week of the target day.")
	fetchThreshold = fetchCmd.Flags().String("threshold", "", "Orders strictly above this amount are listed as high value.")
	fetchUsername = fetchCmd.Flags().String("username", "", "The portal username, defaults to $RAPTHOR_USERNAME.")
	fetchJson = fetchCmd.Flags().Bool("json", false, "Print the result as JSON instead of tables.")
	fetchExports = addExportFlags(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}

func newRunId() string {
	suffix, err := random.String(8)
	if err != nil {
		slog.Warn("failed to generate run id", "err", err)
		suffix = "run"
	}
	return fmt.Sprintf("%s-%s", timezone.Now().Format("20060102-150405"), suffix)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [--date DD/MM/YYYY | --tomorrow] [--week] [--csv <path>] [--xlsx <path>] [--report] [--mail-to <address>]",
	Short: "Logs into the portal and extracts the order listing.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := loadConfig(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *fetchThreshold != "" {
			cfg.Extraction.Threshold = *fetchThreshold
		}
		if *fetchWeek {
			cfg.Extraction.Week = true
		}
		if *fetchUsername != "" {
			cfg.Username = *fetchUsername
		}

		target, err := resolveTarget(*fetchDate, *fetchTomorrow)
		if err != nil {
			serviceutil.Fatal("invalid target date", err)
		}

		runId := newRunId()
		portalOpts := cfg.Portal.options(runId)
		if cfg.SnapshotDir != "" {
			snapshots, err := restyutil.NewFilesystemOutput(cfg.SnapshotDir)
			if err != nil {
				serviceutil.Fatal("failed to create snapshot directory", err)
			}
			portalOpts.Snapshots = snapshots
		}
		if cfg.DumpDir != "" {
			dumps, err := restyutil.NewFilesystemOutput(filepath.Join(cfg.DumpDir, runId))
			if err != nil {
				serviceutil.Fatal("failed to create dump directory", err)
			}
			portalOpts.Dumps = dumps
		}

		opts, err := cfg.Extraction.options()
		if err != nil {
			serviceutil.Fatal("invalid extraction config", err)
		}
		opts.Open = extraction.PortalOpener(portalOpts)
		service := extraction.NewService(opts)

		slog.Info("extracting orders", "run", runId, "username", cfg.Username)
		result := service.Run(ctx, extraction.Credentials{
			Username: cfg.Username,
			Password: cfg.Password,
		}, target)

		if *fetchJson {
			err = printJson(result)
			if err != nil {
				serviceutil.Fatal("failed to print result", err)
			}
		} else {
			renderResult(result)
		}
		if !result.Success {
			exitCode = 1
			return
		}

		err = writeExports(ctx, cfg, fetchExports, result, service.Threshold(), reportDay(target))
		if err != nil {
			serviceutil.Fatal("failed to export result", err)
		}
	},
}
