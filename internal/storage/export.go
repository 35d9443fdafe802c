package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/cgsolve/internal/experiment"
)

type ExportData struct {
	ID        string             `json:"id,omitempty"`
	Report    *experiment.Report `json:"report"`
	Residuals []float64          `json:"residuals"`
}

func ExportJSON(w io.Writer, id string, report *experiment.Report, residuals []float64) error {
	if residuals == nil {
		residuals = report.Residuals
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{ID: id, Report: report, Residuals: residuals})
}

// Record formats the comma-separated results line
// cgsolve,<backend>,<N>,1,<init seconds>,<solve seconds>.
func Record(report *experiment.Report) string {
	return fmt.Sprintf("cgsolve,%s,%d,1,%s,%s",
		report.Backend,
		report.N,
		strconv.FormatFloat(report.InitTime.Seconds(), 'g', -1, 64),
		strconv.FormatFloat(report.SolveTime.Seconds(), 'g', -1, 64),
	)
}

// AppendRecord appends the results line of report to path, creating the
// file if needed.
func AppendRecord(path string, report *experiment.Report) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, Record(report)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
