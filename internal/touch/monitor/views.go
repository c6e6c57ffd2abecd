package monitor

import (
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/jithumediapro/lidar-touch/internal/touch/pipeline"
)

const echartsAssetsPrefix = "/assets/"

// handleScanView renders an X/Y scatter of the most recent frame's raw
// points (converted from polar to Cartesian mm), coloured by
// foreground/background, for the sensor named by the
// sensor_id query parameter (or the first sensor with data).
func (s *Server) handleScanView(w http.ResponseWriter, r *http.Request) {
	fr, sensorID, ok := s.pickLatest(r.URL.Query().Get("sensor_id"))
	if !ok {
		http.Error(w, "no scan data available yet", http.StatusNotFound)
		return
	}

	bg := make([]opts.ScatterData, 0, len(fr.Angles))
	fg := make([]opts.ScatterData, 0, len(fr.Angles))
	maxAbs := 1.0
	for i, a := range fr.Angles {
		d := fr.Distances[i]
		x := d * math.Cos(a)
		y := d * math.Sin(a)
		if math.Abs(x) > maxAbs {
			maxAbs = math.Abs(x)
		}
		if math.Abs(y) > maxAbs {
			maxAbs = math.Abs(y)
		}
		point := opts.ScatterData{Value: []interface{}{x, y}}
		if i < len(fr.ForegroundMask) && fr.ForegroundMask[i] {
			fg = append(fg, point)
		} else {
			bg = append(bg, point)
		}
	}
	pad := maxAbs * 1.05

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scan", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Raw Scan", Subtitle: fmt.Sprintf("sensor=%s seq=%d", sensorID, fr.FrameSeq)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (mm)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (mm)"}),
	)
	scatter.AddSeries("background", bg, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#556"}))
	scatter.AddSeries("foreground", fg, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#f55"}))

	page := components.NewPage()
	page.AddCharts(scatter)
	if err := page.Render(w); err != nil {
		Logf("monitor: rendering scan view: %v", err)
	}
}

// handleTracksView renders the live tracked blobs as a labelled scatter,
// one point per persistent session id.
func (s *Server) handleTracksView(w http.ResponseWriter, r *http.Request) {
	fr, sensorID, ok := s.pickLatest(r.URL.Query().Get("sensor_id"))
	if !ok {
		http.Error(w, "no track data available yet", http.StatusNotFound)
		return
	}

	data := make([]opts.ScatterData, 0, len(fr.Tracks))
	maxAbs := 1.0
	for _, tr := range fr.Tracks {
		if math.Abs(tr.Centroid.X) > maxAbs {
			maxAbs = math.Abs(tr.Centroid.X)
		}
		if math.Abs(tr.Centroid.Y) > maxAbs {
			maxAbs = math.Abs(tr.Centroid.Y)
		}
		// Third tuple value carries the session id, matching the
		// teacher's (x, y, extra) scatter tuple convention.
		data = append(data, opts.ScatterData{Value: []interface{}{tr.Centroid.X, tr.Centroid.Y, tr.SessionID}})
	}
	pad := maxAbs * 1.1

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Tracks", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Live Tracks", Subtitle: fmt.Sprintf("sensor=%s seq=%d count=%d", sensorID, fr.FrameSeq, len(fr.Tracks))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (mm)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (mm)"}),
	)
	scatter.AddSeries("tracks", data)

	page := components.NewPage()
	page.AddCharts(scatter)
	if err := page.Render(w); err != nil {
		Logf("monitor: rendering tracks view: %v", err)
	}
}

func (s *Server) pickLatest(sensorID string) (pipeline.FrameResult, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sensorID != "" {
		fr, ok := s.latest[sensorID]
		return fr, sensorID, ok
	}
	for id, fr := range s.latest {
		return fr, id, true
	}
	return pipeline.FrameResult{}, "", false
}
