// Command lidartouchd turns one or more LiDAR scan streams into TUIO
// touch events for interactive surfaces: each sensor runs its own
// background-subtraction/clustering/tracking pipeline, a router maps
// tracked touches onto configured screens, and an emitter per output
// destination sends normalized touches as OSC bundles.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jithumediapro/lidar-touch/internal/touch/emitter"
	"github.com/jithumediapro/lidar-touch/internal/touch/monitor"
	"github.com/jithumediapro/lidar-touch/internal/touch/pipeline"
	"github.com/jithumediapro/lidar-touch/internal/touch/router"
	"github.com/jithumediapro/lidar-touch/internal/touch/sensor"
	"github.com/jithumediapro/lidar-touch/internal/touch/settings"
)

var (
	settingsPath = flag.String("settings", "settings.json", "path to the settings JSON file")
	mock         = flag.Bool("mock", false, "use a mock sensor source instead of real hardware")
	mockTouches  = flag.Int("mock-touches", 2, "number of simulated touch blobs when -mock is set")
	serialPort   = flag.String("serial-port", "/dev/ttyUSB0", "serial device path when not in -mock mode")
	monitorAddr  = flag.String("monitor-addr", ":8090", "HTTP listen address for the diagnostics monitor")
	snapshotDir  = flag.String("snapshot-dir", "", "if set, periodically write per-sensor PNG scan snapshots here")
)

func main() {
	flag.Parse()

	record, err := loadSettings(*settingsPath)
	if err != nil {
		log.Printf("lidartouchd: %v; starting from an empty settings record", err)
		record = settings.Record{}
	}
	if len(record.Sensors) == 0 {
		record.Sensors = []settings.SensorConfig{{Name: "lidar0"}}
	}

	store := settings.NewStore(record)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitorServer := monitor.NewServer(*monitorAddr, store.Version)
	go func() {
		log.Printf("lidartouchd: monitor listening on %s", *monitorAddr)
		if err := monitorServer.ListenAndServe(); err != nil {
			log.Printf("lidartouchd: monitor server stopped: %v", err)
		}
	}()

	var exporter *monitor.SnapshotExporter
	if *snapshotDir != "" {
		exporter = monitor.NewSnapshotExporter(monitorServer, *snapshotDir, 5*time.Second)
		if err := exporter.Start(); err != nil {
			log.Printf("lidartouchd: snapshot exporter disabled: %v", err)
			exporter = nil
		}
	}

	touchCh := make(chan pipeline.RawTouchSet, 16)
	rt := router.NewRouter(store)
	for _, out := range store.Outputs() {
		em := emitter.NewEmitter(out.Name)
		em.Reconfigure(out.Enabled, out.Host, out.Port)
		rt.AddSink(em)
	}

	var wg sync.WaitGroup
	sources := make([]sensor.Source, 0, len(store.Sensors()))
	pipelines := make([]*pipeline.Pipeline, 0, len(store.Sensors()))

	for _, sc := range store.Sensors() {
		src := newSource(sc.Name)
		if err := src.Start(ctx); err != nil {
			log.Printf("lidartouchd: sensor %s failed to start: %v", sc.Name, err)
			continue
		}
		sources = append(sources, src)
		monitorServer.WatchSensorStatus(sc.Name, src.Status())

		p := pipeline.NewPipeline(sc.Name, store, touchCh)
		visCh := make(chan pipeline.FrameResult, 1)
		p.SetVisualizationSink(visCh)
		monitorServer.WatchPipeline(sc.Name, visCh)
		pipelines = append(pipelines, p)

		wg.Add(1)
		go func(src sensor.Source, p *pipeline.Pipeline) {
			defer wg.Done()
			feedPipeline(ctx, src, p)
		}(src, p)

		wg.Add(1)
		go func(p *pipeline.Pipeline) {
			defer wg.Done()
			p.Run(ctx)
		}(p)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		rt.Run(ctx, touchCh)
	}()

	<-ctx.Done()
	log.Print("lidartouchd: shutting down")

	for _, src := range sources {
		src.Stop()
	}
	for _, p := range pipelines {
		p.Stop()
	}
	if exporter != nil {
		exporter.Stop()
	}
	monitorServer.Shutdown()
	wg.Wait()

	if err := saveSettings(*settingsPath, store.Snapshot()); err != nil {
		log.Printf("lidartouchd: saving settings: %v", err)
	}
}

func newSource(sensorID string) sensor.Source {
	if *mock {
		return sensor.NewMockSource(0, *mockTouches)
	}
	return sensor.NewSerialSource(*serialPort)
}

// feedPipeline copies frames from a sensor source into its pipeline's
// latest-wins queue until the source's channel closes or ctx ends.
func feedPipeline(ctx context.Context, src sensor.Source, p *pipeline.Pipeline) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-src.Frames():
			if !ok {
				return
			}
			p.Enqueue(frame)
		}
	}
}

func loadSettings(path string) (settings.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return settings.Record{}, err
	}

	var record settings.Record
	if err := json.Unmarshal(data, &record); err == nil && len(record.Sensors) > 0 {
		return record, nil
	}

	var legacy settings.LegacyFlatRecord
	if err := json.Unmarshal(data, &legacy); err != nil {
		return settings.Record{}, err
	}
	return settings.MigrateLegacyFlat(legacy), nil
}

func saveSettings(path string, record settings.Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
