package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/cgsolve/internal/experiment"
)

func RenderReport(r *experiment.Report) string {
	var s strings.Builder
	s.WriteString(Title.Render(fmt.Sprintf("CG  n=%d", r.N)) + "\n\n")
	s.WriteString(metric("Pattern", r.Pattern))
	s.WriteString(metric("NNZ", fmt.Sprintf("%d", r.NNZ)))
	s.WriteString(metric("Backend", fmt.Sprintf("%s (%d workers)", r.Backend, r.Workers)))
	s.WriteString(MetricLabel.Render("Phase") + PhaseStyle(r.Phase).Render(r.Phase) + "\n")
	s.WriteString(metric("Iterations", fmt.Sprintf("%d / %d", r.Iterations, r.MaxIterations)))
	s.WriteString(metric("Residual", fmt.Sprintf("%.3e", r.ResidualNorm)))
	s.WriteString(metric("Error", fmt.Sprintf("%.3e", r.ErrorNorm)))
	s.WriteString(metric("Init", r.InitTime.String()))
	s.WriteString(metric("Solve", r.SolveTime.String()))

	if len(r.Kernels) > 0 {
		s.WriteString("\n" + Subtle.Render("kernel        calls      mean") + "\n")
		for _, name := range experiment.SortedKernels(r.Kernels) {
			k := r.Kernels[name]
			s.WriteString(fmt.Sprintf("%-12s %6d %10s\n", name, k.Calls, k.Mean()))
		}
	}
	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}

// SweepTable renders one line per report.
func SweepTable(reports []*experiment.Report) string {
	var s strings.Builder
	s.WriteString(Title.Render(fmt.Sprintf("%-10s %-8s %6s %-17s %11s %11s %12s", "N", "BACKEND", "ITERS", "PHASE", "RESIDUAL", "ERROR", "SOLVE")) + "\n")
	for _, r := range reports {
		s.WriteString(fmt.Sprintf("%-10d %-8s %6d %-17s %11.3e %11.3e %12s\n",
			r.N, r.Backend, r.Iterations, r.Phase, r.ResidualNorm, r.ErrorNorm, r.SolveTime))
	}
	return s.String()
}
