package dashboard

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"envdash.dev/envdash/internal/sensorapi"
)

// csvHeader is the fixed export column order: timestamp followed by the
// metric labels in table order. CO2 is included even though the legacy export
// omitted it; the omission was an oversight.
func csvHeader() []string {
	header := make([]string, 0, len(Metrics)+1)
	header = append(header, "Timestamp")
	for _, m := range Metrics {
		header = append(header, m.Label)
	}
	return header
}

// WriteCSV serializes a reading collection as CSV. Timestamps are rendered as
// RFC 3339; readings whose timestamp cannot be parsed keep the raw epoch
// string. Callers are expected to skip the export entirely for an empty
// collection.
func WriteCSV(w io.Writer, readings []sensorapi.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader()); err != nil {
		return err
	}

	row := make([]string, len(Metrics)+1)
	for i := range readings {
		r := &readings[i]
		if recorded, ok := r.RecordedTime(); ok {
			row[0] = recorded.UTC().Format(time.RFC3339)
		} else {
			row[0] = r.RecordedAt
		}
		for j, m := range Metrics {
			row[j+1] = strconv.FormatFloat(m.Value(r), 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
