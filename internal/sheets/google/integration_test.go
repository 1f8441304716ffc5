//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"organizapay/internal/core"
	"organizapay/internal/report"
)

// Integration tests require a real spreadsheet shared with a service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_MirrorUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	cfg := Config{
		SpreadsheetID:          spreadsheetID,
		ServiceAccountJSON:     os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile:     os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		ApplicationCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	}
	if cfg.ServiceAccountJSON == "" && cfg.ServiceAccountFile == "" && cfg.ApplicationCredentials == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	userID := "integration-" + time.Now().Format("20060102")
	data := report.Data{
		Owner:       "Integração",
		Plan:        core.PlanPremium,
		GeneratedAt: time.Now(),
		Incomes: []core.IncomeEntry{
			{Description: "Teste", Amount: core.Money{Cents: 12345}, Date: core.DateOf(time.Now()), Category: "Outros"},
		},
	}

	// Twice: the second run must find the tab and overwrite it.
	for i := range 2 {
		if err := client.MirrorUser(ctx, userID, data); err != nil {
			t.Fatalf("MirrorUser run %d: %v", i+1, err)
		}
	}

	quoted := "'" + TabTitle(userID) + "'"
	vr, err := client.svc.Spreadsheets.Values.Get(spreadsheetID, quoted+"!A1:D1").Context(ctx).Do()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(vr.Values) == 0 || vr.Values[0][1] != "Integração" {
		t.Fatalf("unexpected title row %v", vr.Values)
	}
	t.Logf("Mirrored %s to tab %s", userID, TabTitle(userID))
}
