package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SnapshotExporter periodically writes a PNG scatter of each known
// sensor's latest scan to outputDir, for offline review without a
// browser. Grounded on the teacher's GridPlotter Save step, simplified
// to one plot per sensor per tick rather than an accumulated time series.
type SnapshotExporter struct {
	server    *Server
	outputDir string
	interval  time.Duration
	stop      chan struct{}
}

// NewSnapshotExporter creates an exporter. outputDir is created on Start
// if it does not already exist.
func NewSnapshotExporter(server *Server, outputDir string, interval time.Duration) *SnapshotExporter {
	return &SnapshotExporter{server: server, outputDir: outputDir, interval: interval, stop: make(chan struct{})}
}

// Start launches the periodic export loop in a goroutine.
func (e *SnapshotExporter) Start() error {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("monitor: creating snapshot dir: %w", err)
	}
	go e.run()
	return nil
}

// Stop ends the export loop.
func (e *SnapshotExporter) Stop() { close(e.stop) }

func (e *SnapshotExporter) run() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.exportAll()
		}
	}
}

func (e *SnapshotExporter) exportAll() {
	e.server.mu.Lock()
	snapshots := make(map[string]plotter.XYs, len(e.server.latest))
	for id, fr := range e.server.latest {
		pts := make(plotter.XYs, len(fr.Points))
		for i, p := range fr.Points {
			pts[i] = plotter.XY{X: p.X, Y: p.Y}
		}
		snapshots[id] = pts
	}
	e.server.mu.Unlock()

	for id, pts := range snapshots {
		if err := e.exportOne(id, pts); err != nil {
			Logf("monitor: exporting snapshot for %s: %v", id, err)
		}
	}
}

func (e *SnapshotExporter) exportOne(sensorID string, pts plotter.XYs) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("scan: %s", sensorID)
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.Radius = vg.Points(1.5)
	p.Add(scatter)

	path := filepath.Join(e.outputDir, fmt.Sprintf("%s.png", sensorID))
	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}
