package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pulsehq/analytics-backend/internal/analytics"
	"github.com/pulsehq/analytics-backend/internal/shared"
	"github.com/pulsehq/analytics-backend/internal/timewindow"
)

func testSnapshot() *analytics.Snapshot {
	return &analytics.Snapshot{
		TenantID: "tenant_a",
		Window: timewindow.DateRange{
			Start:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
			Period: timewindow.PeriodDay,
		},
		GeneratedAt: time.Date(2024, 3, 16, 0, 0, 1, 0, time.UTC),
		Summary: &analytics.ConversationMetrics{
			Total: 10, Active: 2, Completed: 6, Escalated: 2,
			AvgResponseTimeMs: 250, SatisfactionScore: 4.1, ResolutionRate: 0.6,
		},
		Agents: []analytics.AgentPerformance{
			{
				AgentID: "agent_1", AgentName: "Support Bot", TotalConversations: 10,
				SuccessRate: 0.6, Uptime: 0.99,
				TopIntents: []analytics.IntentShare{{Intent: "order_status", Percentage: 0.5}},
			},
		},
		Channels: []analytics.ChannelAnalytics{
			{
				Channel: shared.ChannelWeb, Display: shared.ChannelWeb.Display(),
				TotalMessages: 40, UniqueUsers: 8, Uptime: 0.995,
				AvgResponseTimeMs: 250, ErrorRate: 0.005,
			},
		},
	}
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	_, err := Encode(testSnapshot(), "xlsx")
	if !errors.Is(err, shared.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestEncode_CSV(t *testing.T) {
	artifact, err := Encode(testSnapshot(), FormatCSV)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	if artifact.ContentType != "text/csv" {
		t.Errorf("content type = %s, want text/csv", artifact.ContentType)
	}
	if !strings.HasPrefix(artifact.Filename, "analytics-") || !strings.HasSuffix(artifact.Filename, ".csv") {
		t.Errorf("filename = %s, want analytics-<date>.csv", artifact.Filename)
	}

	r := csv.NewReader(strings.NewReader(string(artifact.Data)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("artifact is not parseable CSV: %v", err)
	}

	// The summary row follows the summary header; its total column must
	// equal what was on screen.
	var summaryRow []string
	for i, rec := range records {
		if len(rec) == 1 && rec[0] == "summary" && i+2 < len(records) {
			summaryRow = records[i+2]
		}
	}
	if summaryRow == nil {
		t.Fatal("summary section missing")
	}
	if summaryRow[0] != "10" {
		t.Errorf("exported total = %s, want 10", summaryRow[0])
	}

	raw := string(artifact.Data)
	for _, want := range []string{"agents", "agent_1", "Support Bot", "channels", "web", "order_status:0.5"} {
		if !strings.Contains(raw, want) {
			t.Errorf("CSV missing %q", want)
		}
	}
}

func TestEncode_JSON(t *testing.T) {
	artifact, err := Encode(testSnapshot(), FormatJSON)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	if artifact.ContentType != "application/json" {
		t.Errorf("content type = %s, want application/json", artifact.ContentType)
	}
	if !strings.HasSuffix(artifact.Filename, ".json") {
		t.Errorf("filename = %s, want .json extension", artifact.Filename)
	}

	var decoded struct {
		TenantID string `json:"tenant_id"`
		Summary  struct {
			Total int64 `json:"total"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(artifact.Data, &decoded); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if decoded.TenantID != "tenant_a" {
		t.Errorf("tenant = %s, want tenant_a", decoded.TenantID)
	}
	if decoded.Summary.Total != 10 {
		t.Errorf("exported total = %d, want 10", decoded.Summary.Total)
	}
}

func TestEncode_CSV_SkipsFailedSections(t *testing.T) {
	snap := testSnapshot()
	snap.Agents = nil
	snap.AgentsErr = shared.ErrUnavailable

	artifact, err := Encode(snap, FormatCSV)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if strings.Contains(string(artifact.Data), "agents") {
		t.Error("failed section must not be fabricated in the export")
	}
}
