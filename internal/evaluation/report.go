package evaluation

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteReport prints the console report: precision and recall at every
// cutoff per query with their means, then the interpolated curve per query
// and averaged.
func WriteReport(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	for _, k := range r.Cutoffs {
		writeMeasure(bw, "P", k, r.Results, func(q QueryResult) float64 { return q.Precision[k] }, r.Summary.MeanPrecision[k])
		writeMeasure(bw, "R", k, r.Results, func(q QueryResult) float64 { return q.Recall[k] }, r.Summary.MeanRecall[k])
	}

	fmt.Fprintln(bw, "Interpolated precision-recall curve:")
	fmt.Fprintf(bw, "\t%-8s%s\n", "QUERY", curveHeader(r.Summary.MeanCurve))
	for _, q := range r.Results {
		fmt.Fprintf(bw, "\t%-8s%s\n", q.ID, curveRow(q.Curve))
	}
	fmt.Fprintf(bw, "\t%-8s%s\n", "MEAN", curveRow(r.Summary.MeanCurve))

	if len(r.Skipped) > 0 {
		fmt.Fprintf(bw, "\nSkipped (no relevance judgments): %s\n", strings.Join(r.Skipped, ", "))
	}
	return bw.Flush()
}

func writeMeasure(w io.Writer, name string, k int, results []QueryResult, value func(QueryResult) float64, mean float64) {
	fmt.Fprintf(w, "%s@%d:\n", name, k)
	for _, q := range results {
		fmt.Fprintf(w, "\tQUERY %s = %.4f\n", q.ID, value(q))
	}
	fmt.Fprintf(w, "\n\tMean %s@%d = %.4f\n\n", name, k, mean)
}

func curveHeader(points []Point) string {
	var sb strings.Builder
	for _, p := range points {
		fmt.Fprintf(&sb, "%8.1f", p.Recall)
	}
	return sb.String()
}

func curveRow(points []Point) string {
	var sb strings.Builder
	for _, p := range points {
		fmt.Fprintf(&sb, "%8.4f", p.Precision)
	}
	return sb.String()
}
