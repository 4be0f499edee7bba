package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"rapthor-backend/lib/export"
	"rapthor-backend/lib/orders"
	"rapthor-backend/lib/timezone"
	"rapthor-backend/services/extraction"
	"time"

	"github.com/govalues/decimal"
	"github.com/spf13/cobra"
)

type exportFlags struct {
	csv    *string
	xlsx   *string
	report *bool
	mailTo *[]string
}

func addExportFlags(cmd *cobra.Command) exportFlags {
	return exportFlags{
		csv:    cmd.Flags().String("csv", "", "Write the orders to a CSV file."),
		xlsx:   cmd.Flags().String("xlsx", "", "Write the XLSX report to a file."),
		report: cmd.Flags().Bool("report", false, "Write the XLSX report as RAPTHOR_DESADV_YYYYMMDD.xlsx in the export directory."),
		mailTo: cmd.Flags().StringSlice("mail-to", nil, "Mail the XLSX report to these addresses."),
	}
}

func addTargetFlags(cmd *cobra.Command) (date *string, tomorrow *bool) {
	date = cmd.Flags().String("date", "", "Only orders for delivery on this day (DD/MM/YYYY).")
	tomorrow = cmd.Flags().Bool("tomorrow", false, "Only orders for delivery tomorrow.")
	return date, tomorrow
}

func resolveTarget(date string, tomorrow bool) (*time.Time, error) {
	if date != "" {
		t, ok := orders.ParseDate(date)
		if !ok {
			return nil, fmt.Errorf("invalid date %q, expected DD/MM/YYYY", date)
		}
		return &t, nil
	}
	if tomorrow {
		t := timezone.Tomorrow(timezone.Now())
		return &t, nil
	}
	return nil, nil
}

// reportDay is the day a report is named after.
func reportDay(target *time.Time) time.Time {
	if target != nil {
		return *target
	}
	return timezone.Day(timezone.Now())
}

func writeExports(ctx context.Context, cfg Config, flags exportFlags, result extraction.Result, threshold decimal.Decimal, day time.Time) error {
	if *flags.csv != "" {
		f, err := os.Create(*flags.csv)
		if err != nil {
			return err
		}
		err = export.WriteCSV(f, result.Orders)
		closeErr := f.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}
		slog.Info("wrote csv", "path", *flags.csv)
	}

	xlsxPath := *flags.xlsx
	if xlsxPath == "" && *flags.report {
		xlsxPath = filepath.Join(cfg.ExportDir, export.ReportFilename(day))
	}
	recipients := *flags.mailTo
	if xlsxPath == "" && len(recipients) == 0 {
		return nil
	}

	report := export.Report{
		Date:            day,
		Threshold:       threshold,
		Orders:          result.Orders,
		DesadvPending:   result.DesadvPending,
		HighValueOrders: result.HighValueOrders,
		Totals:          orders.SortedTotals(result.TotalsByClient),
	}
	var workbook bytes.Buffer
	err := export.WriteXLSX(ctx, &workbook, report)
	if err != nil {
		return err
	}

	if xlsxPath != "" {
		err = os.WriteFile(xlsxPath, workbook.Bytes(), 0644)
		if err != nil {
			return err
		}
		slog.Info("wrote report", "path", xlsxPath)
	}
	if len(recipients) > 0 {
		err = export.SendReport(ctx, cfg.Smtp, recipients, report, workbook.Bytes())
		if err != nil {
			return fmt.Errorf("mail report: %w", err)
		}
		slog.Info("mailed report", "to", recipients)
	}
	return nil
}
