package atgpedi

import (
	"context"
	"os"
	devenv "rapthor-backend/dev/env"
	"rapthor-backend/lib/orders"
	"rapthor-backend/lib/restyutil"
	"rapthor-backend/lib/telemetry"
	"testing"
	"time"
)

func TestLivePortal(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/atgpedi")
	defer cleanup()

	config, err := devenv.GetStateConfig[devenv.PortalTestConfig]("portal_config.json5")
	if os.IsNotExist(err) {
		t.Skip("write dev/.state/portal_config.json5 to run tests against the real portal")
	}
	if err != nil {
		t.Fatal(err)
	}

	ctx, span := tracer.Start(context.Background(), "TestLivePortal")
	defer span.End()

	snapshotDir, err := devenv.ResolvePath("<dev_state>/snapshots")
	if err != nil {
		t.Fatal(err)
	}
	snapshots, err := restyutil.NewFilesystemOutput(snapshotDir)
	if err != nil {
		t.Fatal(err)
	}

	s, err := Open(ctx, Options{
		BaseUrl:          config.BaseUrl,
		ListingPath:      config.ListingPath,
		CloudflareBypass: true,
		SettleDelay:      time.Second * 3,
		RunId:            "live",
		Snapshots:        snapshots,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)

	err = s.Login(ctx, config.Username, config.Password)
	if err != nil {
		t.Fatal(err)
	}
	err = s.OpenListing(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var date *time.Time
	if config.Date != "" {
		d, ok := orders.ParseDate(config.Date)
		if !ok {
			t.Fatalf("invalid date %q", config.Date)
		}
		date = &d
	}
	err = s.ApplyDate(ctx, date)
	if err != nil {
		t.Fatal(err)
	}

	rows, err := s.WaitForRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	extracted, stats := orders.Extract(ctx, rows)
	t.Logf("%d rows, %d orders, %d skipped, %d errors", stats.Rows, len(extracted), stats.Skipped, len(stats.Errors))
	for _, o := range extracted {
		t.Logf("%s %s %s desadv=%v", o.Number, o.Client, o.Amount.String(), o.DesadvRequired)
	}
}
