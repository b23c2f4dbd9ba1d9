// Command mapstream converts a persisted submap map into a live
// visualization feed: it selects one of three input sources, downsamples
// each submap's point cloud, merges the result into a single frame tagged
// "map", and republishes that frame on a fixed cadence until terminated.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/auvlib/mapstream/internal/archive"
	"github.com/auvlib/mapstream/internal/config"
	"github.com/auvlib/mapstream/internal/fsutil"
	"github.com/auvlib/mapstream/internal/loader"
	"github.com/auvlib/mapstream/internal/mapdb"
	"github.com/auvlib/mapstream/internal/submap"
	"github.com/auvlib/mapstream/internal/version"
	"github.com/auvlib/mapstream/internal/viewer"
)

var (
	covsFolder   = flag.String("covs-folder", "", "Input folder of per-submap PCD files (simulation mode)")
	slamCereal   = flag.String("slam-cereal", "", "Input slam archive path")
	outputCereal = flag.String("output-cereal", "output_cereal.cereal", "Output archive for the filtered collection (empty disables)")
	original     = flag.String("original", "no", "Re-parse the original single-trajectory format (yes|no)")
	simulation   = flag.String("simulation", "no", "Read simulation submaps from -covs-folder (yes|no)")
	tuningPath   = flag.String("tuning", "", "Optional JSON tuning file")
	listen       = flag.String("listen", "", "HTTP/websocket listen address (overrides tuning)")
	dbFile       = flag.String("db", "mapstream.db", "Path to the catalog SQLite database (empty disables)")
	mqttBroker   = flag.String("mqtt-broker", "", "MQTT broker URL (overrides tuning; empty disables)")
	mqttTopic    = flag.String("mqtt-topic", "", "MQTT topic for frames (overrides tuning)")
)

func main() {
	flag.Parse()
	log.Printf("mapstream %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	tuning := config.EmptyTuning()
	if *tuningPath != "" {
		var err error
		tuning, err = config.LoadTuning(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
	}

	srcCfg, err := loader.Resolve(*simulation, *original, *covsFolder, *slamCereal)
	if err != nil {
		log.Fatalf("Invalid input configuration: %v", err)
	}
	log.Printf("Input source: %s", srcCfg.Mode)

	fs := fsutil.OSFileSystem{}
	maps, err := loader.New(fs).Load(srcCfg)
	if err != nil {
		log.Fatalf("Failed to load submaps: %v", err)
	}

	// Pre-filter counts, for the catalog; the assembler filters in place.
	preCounts := make([]int, len(maps))
	for i := range maps {
		preCounts[i] = maps[i].Cloud.Len()
	}

	sampler, err := submap.NewUniformSampler(tuning.GetFilterRadius())
	if err != nil {
		log.Fatalf("Invalid filter configuration: %v", err)
	}

	assembler := viewer.NewAssembler(sampler, tuning.GetFrameID())
	frame := assembler.Assemble(maps)
	log.Printf("Assembled frame: %d submaps, %d points after filtering (radius %v)",
		frame.SubmapCount, frame.PointCount, sampler.Radius())

	if *outputCereal != "" {
		if err := archive.WriteCollection(fs, *outputCereal, maps); err != nil {
			log.Fatalf("Failed to write output archive: %v", err)
		}
		log.Printf("Wrote filtered collection to %s", *outputCereal)
	}

	recordCatalog(srcCfg, maps, preCounts, sampler.Radius())

	pub := viewer.NewPublisher(viewer.Config{
		Period:     tuning.GetPublishPeriod(),
		QueueDepth: tuning.GetQueueDepth(),
	})
	pub.SetFrame(frame)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := pub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	listenAddr := *listen
	if listenAddr == "" {
		listenAddr = tuning.GetListenAddr()
	}
	server := &http.Server{Addr: listenAddr, Handler: viewer.NewMux(pub)}
	g.Go(func() error {
		log.Printf("Viewer endpoint listening on %s", listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	broker := *mqttBroker
	if broker == "" {
		broker = tuning.GetMQTTBroker()
	}
	if broker != "" {
		topic := *mqttTopic
		if topic == "" {
			topic = tuning.GetMQTTTopic()
		}
		sink, err := viewer.NewMQTTSink(broker, topic)
		if err != nil {
			log.Fatalf("Failed to connect MQTT sink: %v", err)
		}
		frames := pub.Subscribe("mqtt-sink")
		g.Go(func() error {
			defer pub.Unsubscribe("mqtt-sink")
			if err := sink.Run(ctx, frames); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Pipeline error: %v", err)
	}
	log.Print("Graceful shutdown complete")
}

// recordCatalog stores run diagnostics. Failures are logged, never fatal.
func recordCatalog(srcCfg loader.Config, maps submap.Collection, preCounts []int, radius float64) {
	if *dbFile == "" {
		return
	}

	db, err := mapdb.New(*dbFile)
	if err != nil {
		log.Printf("Catalog unavailable: %v", err)
		return
	}
	defer db.Close()

	source := srcCfg.SlamPath
	if srcCfg.Mode == loader.ModeDirectory {
		source = srcCfg.FolderPath
	}
	runID, err := db.BeginRun(srcCfg.Mode.String(), source, radius)
	if err != nil {
		log.Printf("Failed to record run: %v", err)
		return
	}
	for i := range maps {
		if err := db.RecordSubmap(runID, maps[i], preCounts[i]); err != nil {
			log.Printf("Failed to record submap %d: %v", maps[i].ID, err)
		}
	}
}
