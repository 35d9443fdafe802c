// Package viz renders solver results in the terminal and as images.
//
//   - [RenderReport]: summary panel for one experiment
//   - [ResidualPlot]: ASCII convergence chart of log10 residuals
//   - [SaveResidualPNG]: the same chart as a PNG file
//   - [WatchModel]: Bubble Tea program stepping a solve live
//
// # Key Bindings
//
//	Space - Pause/Resume
//	S     - Single step while paused
//	Q     - Quit
package viz
