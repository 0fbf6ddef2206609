package audit

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// CSVExporter renders timeline rows as CSV.
type CSVExporter struct{}

// WriteCSV serializes rows with a header line.
func (CSVExporter) WriteCSV(rows []TimelineRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"occurred_at", "actor_id", "action", "entity", "entity_id", "meta"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.At.UTC().Format(time.RFC3339),
			strconv.FormatInt(row.ActorID, 10),
			row.Action,
			row.Entity,
			row.EntityID,
			string(row.Meta),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
