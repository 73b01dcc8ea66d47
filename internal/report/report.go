package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/relclock/internal/experiment"
	"github.com/san-kum/relclock/internal/storage"
)

const (
	chartHeight = 10
	chartWidth  = 80
)

// Chart plots one column of a series against sample index. Non-finite values
// are dropped since asciigraph cannot scale them.
func Chart(s *experiment.Series, col experiment.Column) string {
	data := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return Subtle.Render("(no data)")
	}

	caption := fmt.Sprintf("%s vs %s", col.Label(), s.X.Label())
	if n := s.Len(); n > 0 {
		caption += fmt.Sprintf(", %s .. %s", formatValue(s.X.Values[0]), formatValue(s.X.Values[n-1]))
	}
	return asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption),
	)
}

// Series writes a titled chart for every ordinate column followed by the
// summary table.
func Series(w io.Writer, s *experiment.Series) error {
	fmt.Fprintln(w, Title.Render(s.Title))
	fmt.Fprintln(w, Subtle.Render(fmt.Sprintf("%s, %d samples", s.Experiment, s.Len())))
	fmt.Fprintln(w)
	for _, col := range s.Y {
		fmt.Fprintln(w, Chart(s, col))
		fmt.Fprintln(w)
	}
	return Summary(w, s.Summary)
}

// Summary writes scalar results sorted by name.
func Summary(w io.Writer, summary map[string]float64) error {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUANTITY\tVALUE")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, formatValue(summary[k]))
	}
	return tw.Flush()
}

// Runs writes the stored run listing.
func Runs(w io.Writer, runs []storage.RunMetadata) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEXPERIMENT\tTIME\tSAMPLES\tELAPSED")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.3fs\n",
			run.ID,
			run.Experiment,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Samples,
			run.Elapsed,
		)
	}
	return tw.Flush()
}

// Experiments writes the registered experiments and their descriptions.
func Experiments(w io.Writer, entries []experiment.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPERIMENT\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, e.Description)
	}
	return tw.Flush()
}

// Presets writes group/name pairs, one group per line.
func Presets(w io.Writer, groups map[string][]string) error {
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tPRESETS")
	for _, g := range names {
		fmt.Fprintf(tw, "%s\t%s\n", g, strings.Join(groups[g], ", "))
	}
	return tw.Flush()
}

func formatValue(v float64) string {
	a := math.Abs(v)
	if a != 0 && (a < 1e-3 || a >= 1e6) {
		return fmt.Sprintf("%.6e", v)
	}
	return fmt.Sprintf("%.6g", v)
}
