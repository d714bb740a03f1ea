package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pulsehq/analytics-backend/internal/analytics"
	"github.com/pulsehq/analytics-backend/internal/shared"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Artifact is a downloadable rendering of a dashboard snapshot.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Encode serializes the snapshot the operator is currently looking at. It
// never re-queries: the input is the committed view model, so the artifact
// always matches the screen.
func Encode(snap *analytics.Snapshot, format Format) (*Artifact, error) {
	switch format {
	case FormatCSV:
		return encodeCSV(snap)
	case FormatJSON:
		return encodeJSON(snap)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalid, format)
	}
}

func filename(ext string) string {
	return fmt.Sprintf("analytics-%s.%s", time.Now().UTC().Format("2006-01-02"), ext)
}

func encodeJSON(snap *analytics.Snapshot) (*Artifact, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Filename:    filename("json"),
		ContentType: "application/json",
		Data:        data,
	}, nil
}

func encodeCSV(snap *analytics.Snapshot) (*Artifact, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	writeSection := func(title string, header []string, rows [][]string) error {
		if err := w.Write([]string{title}); err != nil {
			return err
		}
		if err := w.Write(header); err != nil {
			return err
		}
		for _, row := range rows {
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return w.Write([]string{})
	}

	if snap.Summary != nil {
		s := snap.Summary
		err := writeSection("summary",
			[]string{"total", "active", "completed", "escalated", "avg_response_time_ms", "satisfaction_score", "resolution_rate"},
			[][]string{{
				strconv.FormatInt(s.Total, 10),
				strconv.FormatInt(s.Active, 10),
				strconv.FormatInt(s.Completed, 10),
				strconv.FormatInt(s.Escalated, 10),
				formatFloat(s.AvgResponseTimeMs),
				formatFloat(s.SatisfactionScore),
				formatFloat(s.ResolutionRate),
			}})
		if err != nil {
			return nil, err
		}
	}

	if len(snap.Agents) > 0 {
		rows := make([][]string, len(snap.Agents))
		for i, a := range snap.Agents {
			intents := make([]string, len(a.TopIntents))
			for j, intent := range a.TopIntents {
				intents[j] = fmt.Sprintf("%s:%s", intent.Intent, formatFloat(intent.Percentage))
			}
			rows[i] = []string{
				a.AgentID,
				a.AgentName,
				strconv.FormatInt(a.TotalConversations, 10),
				formatFloat(a.SuccessRate),
				formatFloat(a.Uptime),
				strings.Join(intents, ";"),
			}
		}
		err := writeSection("agents",
			[]string{"agent_id", "agent_name", "total_conversations", "success_rate", "uptime", "top_intents"},
			rows)
		if err != nil {
			return nil, err
		}
	}

	if len(snap.Channels) > 0 {
		rows := make([][]string, len(snap.Channels))
		for i, c := range snap.Channels {
			rows[i] = []string{
				c.Channel.String(),
				strconv.FormatInt(c.TotalMessages, 10),
				strconv.FormatInt(c.UniqueUsers, 10),
				formatFloat(c.Uptime),
				formatFloat(c.AvgResponseTimeMs),
				formatFloat(c.ErrorRate),
			}
		}
		err := writeSection("channels",
			[]string{"channel", "total_messages", "unique_users", "uptime", "avg_response_time_ms", "error_rate"},
			rows)
		if err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return &Artifact{
		Filename:    filename("csv"),
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
