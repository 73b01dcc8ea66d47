package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/relclock/internal/experiment"
)

// ExportCSV writes the series as a header row of column names followed by one
// row per sample. Values keep full float64 precision.
func ExportCSV(w io.Writer, series *experiment.Series) error {
	if err := series.Validate(); err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	header := []string{series.X.Name}
	for _, c := range series.Y {
		header = append(header, c.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i := 0; i < series.Len(); i++ {
		row[0] = strconv.FormatFloat(series.X.Values[i], 'g', -1, 64)
		for j, c := range series.Y {
			row[j+1] = strconv.FormatFloat(c.Values[i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportJSON writes the series, including units and summary, as indented JSON.
func ExportJSON(w io.Writer, series *experiment.Series) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(series)
}
