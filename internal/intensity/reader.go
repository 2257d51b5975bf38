package intensity

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseTable reads an intensity CSV with `date` (YYYY-MM-DD), `start`
// (HH:MM) and `actual` columns into a table source. The key for a row is
// `MM/DD-HH:MM`.
func ParseTable(r io.Reader) (Source, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Source{}, fmt.Errorf("failed to read intensity CSV: %w", err)
	}
	if len(records) < 2 {
		return Source{}, fmt.Errorf("intensity file has no data rows")
	}

	dateI, startI, valueI := -1, -1, -1
	for i, h := range records[0] {
		switch strings.TrimSpace(h) {
		case "date":
			dateI = i
		case "start":
			startI = i
		case "actual":
			valueI = i
		}
	}
	if dateI < 0 || startI < 0 || valueI < 0 {
		return Source{}, fmt.Errorf("intensity file must have date, start and actual columns")
	}

	values := make(map[string]float64, len(records)-1)
	for i, record := range records[1:] {
		if len(record) <= dateI || len(record) <= startI || len(record) <= valueI {
			return Source{}, fmt.Errorf("intensity row %d: too few columns", i+1)
		}

		dateParts := strings.Split(strings.TrimSpace(record[dateI]), "-")
		if len(dateParts) < 2 {
			return Source{}, fmt.Errorf("intensity row %d: invalid date %q", i+1, record[dateI])
		}
		month := zeroPad(dateParts[len(dateParts)-2])
		day := zeroPad(dateParts[len(dateParts)-1])

		value, err := strconv.ParseFloat(strings.TrimSpace(record[valueI]), 64)
		if err != nil {
			return Source{}, fmt.Errorf("intensity row %d: invalid value %q: %w", i+1, record[valueI], err)
		}

		key := month + "/" + day + "-" + strings.TrimSpace(record[startI])
		values[key] = value
	}

	return Table(values), nil
}

func zeroPad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
