package commands

import (
	"context"
	"errors"
	"os"
	"rapthor-backend/lib/scrapers/atgpedi"
	"rapthor-backend/lib/serviceutil"
	"rapthor-backend/services/extraction"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

var (
	parseDate     *string
	parseTomorrow *bool
	parseJson     *bool
	parseExports  exportFlags
)

func init() {
	parseDate, parseTomorrow = addTargetFlags(parseCmd)
	parseJson = parseCmd.Flags().Bool("json", false, "Print the result as JSON instead of tables.")
	parseExports = addExportFlags(parseCmd)
	rootCmd.AddCommand(parseCmd)
}

var errNoOpener = errors.New("parse does not open portal sessions")

var parseCmd = &cobra.Command{
	Use:   "parse <listing.html>",
	Short: "Decodes a saved listing page or snapshot without contacting the portal.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := loadConfig(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		target, err := resolveTarget(*parseDate, *parseTomorrow)
		if err != nil {
			serviceutil.Fatal("invalid target date", err)
		}

		f, err := os.Open(args[0])
		if err != nil {
			serviceutil.Fatal("failed to open listing", err)
		}
		doc, err := goquery.NewDocumentFromReader(f)
		f.Close()
		if err != nil {
			serviceutil.Fatal("failed to parse listing", err)
		}

		portal := cfg.Portal
		if len(portal.RowSelectors) == 0 {
			portal.RowSelectors = atgpedi.DefaultRowSelectors
		}
		if len(portal.ActionMarkers) == 0 {
			portal.ActionMarkers = atgpedi.DefaultActionMarkers
		}
		if !atgpedi.HasListing(doc) {
			serviceutil.Fatal("the page does not render an order listing", nil)
		}
		rows := atgpedi.DecodeRows(doc, portal.RowSelectors, portal.ActionMarkers)

		opts, err := cfg.Extraction.options()
		if err != nil {
			serviceutil.Fatal("invalid extraction config", err)
		}
		opts.Open = func(context.Context, int) (extraction.Session, error) {
			return nil, errNoOpener
		}
		service := extraction.NewService(opts)
		result := service.Evaluate(ctx, rows, target)

		if *parseJson {
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

		err = writeExports(ctx, cfg, parseExports, result, service.Threshold(), reportDay(target))
		if err != nil {
			serviceutil.Fatal("failed to export result", err)
		}
	},
}
