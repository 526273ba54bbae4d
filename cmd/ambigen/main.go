package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cbegin/ambigen"
	"github.com/cbegin/ambigen/internal/scheduler"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		preset     = flag.String("preset", "all", "preset: "+strings.Join(ambigen.PresetNames(), "|"))
		seed       = flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
		seconds    = flag.Float64("seconds", 0, "stop after N seconds (0 = until interrupted; required with -out)")
		outPath    = flag.String("out", "", "render offline to this WAV file instead of playing")
		listen     = flag.String("listen", "", "serve the control API on this address, e.g. :8080")
		ahead      = flag.Duration("ahead", 100*time.Millisecond, "scheduler lookahead window")
		poll       = flag.Duration("poll", 25*time.Millisecond, "scheduler wake interval (must be shorter than -ahead)")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		dry        = flag.Bool("dry", false, "disable the reverb/echo bus")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	tracks, err := ambigen.Preset(*preset, *seed)
	if err != nil {
		log.Fatal(err)
	}
	opts := []ambigen.Option{
		ambigen.WithLogger(logger),
		ambigen.WithSchedulerOptions(
			scheduler.WithScheduleAhead(ahead.Seconds()),
			scheduler.WithPollInterval(*poll),
		),
	}
	if *dry {
		opts = append(opts, ambigen.WithSpace(ambigen.Space{}))
	}

	if *outPath != "" {
		if *seconds <= 0 {
			log.Fatal("-out requires -seconds")
		}
		if err := renderToFile(*outPath, tracks, *sampleRate, *seconds, opts); err != nil {
			log.Fatal(err)
		}
		logger.Info("wrote", "path", *outPath, "preset", *preset, "seed", *seed, "seconds", *seconds)
		return
	}

	e, err := ambigen.NewEngine(*sampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}
	for _, t := range tracks {
		if err := e.AddTrack(t); err != nil {
			log.Fatal(err)
		}
	}
	e.SetMasterVolume(*volume)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if *seconds > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*seconds*float64(time.Second)))
		defer cancel()
	}

	var srv *http.Server
	if *listen != "" {
		srv = &http.Server{Addr: *listen, Handler: e.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("control api", "err", err)
				cancel()
			}
		}()
		logger.Info("control api listening", "addr", *listen)
	}

	if err := e.Start(); err != nil {
		log.Fatal(err)
	}
	logger.Info("playing", "preset", *preset, "seed", *seed)

	for done := false; !done; {
		select {
		case err := <-e.Errors():
			logger.Warn("scheduler", "err", err)
		case <-ctx.Done():
			done = true
		}
	}

	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		stop()
	}
	if err := e.Stop(); err != nil {
		log.Fatal(err)
	}
	st := e.Status()
	fmt.Printf("played %.1fs, %d notes dispatched, %d dropped\n", st.Now, st.Dispatched, st.Dropped)
}

func renderToFile(path string, tracks []*ambigen.Track, sampleRate int, seconds float64, opts []ambigen.Option) error {
	samples, err := ambigen.RenderOffline(tracks, sampleRate, seconds, opts...)
	if samples == nil {
		return err
	}
	if err != nil {
		slog.Warn("render finished with producer errors", "err", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := ambigen.WriteWAV(w, samples, sampleRate, 2); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
