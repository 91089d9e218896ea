//go:build linux

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memscene/camera"
	"memscene/config"
	"memscene/entity"
	"memscene/features"
	"memscene/inspect"
	"memscene/instance"
	"memscene/offsets"
	"memscene/overlay"
	"memscene/process"
	"memscene/process_blob"
	"memscene/process_linux"
	"memscene/remote"
	"memscene/runner"

	"golang.org/x/sync/errgroup"
)

var errTargetGone = errors.New("target process is gone")

func main() {
	configFlag := flag.String("config", "", "Settings file (yaml, json or toml)")
	processFlag := flag.String("process", "", "Process name to attach to, overrides the settings file")
	offsetsFlag := flag.String("offsets", "", "Offsets JSON document, overrides the settings file")
	espFlag := flag.Bool("esp", false, "Force esp_enabled on")
	demoFlag := flag.Bool("demo", false, "Attach to a synthetic in-memory scene instead of a live process")
	inspectFlag := flag.Bool("inspect", false, "Print the resolved roots and the local player's memory, then exit")
	recordFlag := flag.String("record", "", "Save every byte read from the target to this directory on exit")
	replayFlag := flag.String("replay", "", "Attach to a directory written by -record instead of a live process")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Printf("Error loading settings: %v\n", err)
		os.Exit(1)
	}
	if *processFlag != "" {
		settings.Process = *processFlag
	}
	if *offsetsFlag != "" {
		settings.OffsetsFile = *offsetsFlag
	}

	table := offsets.Default()
	if settings.OffsetsFile != "" {
		table, err = offsets.Load(settings.OffsetsFile)
		if err != nil {
			fmt.Printf("Warning: %v, using built-in offsets\n", err)
		}
	}
	fmt.Printf("Offsets version %s\n", table.Version())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opener process.Opener = process_linux.OpenByName
	alive := runner.PidAlive
	if *demoFlag {
		// the synthetic pid does not exist on this host
		alive = nil
		demo := newDemo(table)
		opener = demo.world.Opener()
		settings.Process = demo.name
		go demo.animate(ctx)
	}
	if *replayFlag != "" {
		img, name, err := process_blob.Load(*replayFlag)
		if err != nil {
			fmt.Printf("Error loading replay: %v\n", err)
			os.Exit(1)
		}
		alive = nil
		opener = process_blob.Opener(img, name)
		settings.Process = name
	}

	var recorder *process_blob.Recorder
	if *recordFlag != "" {
		live := opener
		opener = func(name string) (process.Process, error) {
			proc, err := live(name)
			if err != nil {
				return nil, err
			}
			recorder = process_blob.NewRecorder(proc)
			return recorder, nil
		}
	}
	saveRecording := func() {
		if recorder == nil {
			return
		}
		if err := recorder.Image().Save(*recordFlag, settings.Process); err != nil {
			fmt.Printf("Error saving recording: %v\n", err)
			return
		}
		fmt.Printf("Recording saved to %s\n", *recordFlag)
	}

	mem := remote.New(remote.WithOpener(opener))

	opts := entity.DefaultOptions()
	opts.RescanInterval = settings.RescanInterval
	opts.HeadOffset = settings.HeadOffset
	opts.PositionBound = settings.PositionBound
	opts.DefaultMaxHealth = settings.DefaultMaxHealth
	opts.Viewport = camera.Viewport{Width: settings.ViewportWidth, Height: settings.ViewportHeight}
	walker := instance.NewWalker(mem, table)
	cache := entity.NewCache(mem, walker, table, opts)

	flags := features.New(settings.Features)
	if *espFlag {
		flags.Set(string(features.ESPEnabled), true)
	}

	session := runner.NewSession(mem, cache)
	result := <-session.AttachAsync(settings.Process)
	if !result.OK {
		fmt.Printf("Error: could not attach to %s\n", settings.Process)
		os.Exit(1)
	}
	fmt.Printf("Attached to %s (pid %d)\n", result.Name, result.PID)

	if *inspectFlag {
		session.Cycle()
		roots := cache.Roots()
		inspect.Children(os.Stdout, walker, roots.DataModel, "DataModel")
		inspect.Children(os.Stdout, walker, roots.Workspace, "Workspace")
		inspect.Children(os.Stdout, walker, roots.Players, "Players")
		inspect.Node(os.Stdout, mem, walker, table, roots.LocalPlayer, 0x400, settings.Color, "Player")
		session.Detach()
		saveRecording()
		return
	}

	updater := runner.NewUpdater(session,
		runner.WithInterval(settings.UpdateInterval),
		runner.WithLiveness(settings.LivenessInterval, alive))
	renderer := overlay.NewTextRenderer(os.Stdout, overlay.WithColor(settings.Color), overlay.WithClear(settings.Clear))
	presenter := overlay.NewPresenter(cache, flags, renderer, settings.FrameRate)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return updater.Run(gctx) })
	g.Go(func() error { return presenter.Run(gctx) })
	g.Go(func() error { return watchAttachment(gctx, session, settings.LivenessInterval) })

	<-gctx.Done()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, errTargetGone) {
			fmt.Printf("Error: %v\n", err)
		}
	case <-time.After(settings.ShutdownGrace):
		fmt.Printf("Workers did not stop within %s\n", settings.ShutdownGrace)
	}

	session.Detach()
	saveRecording()
	st := updater.Stats()
	fmt.Printf("Detached after %d cycles (%d published, %d recovered panics)\n", st.Cycles, st.Published, st.Panics)
}

// watchAttachment ends the run once the updater has dropped the process.
func watchAttachment(ctx context.Context, session *runner.Session, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !session.Attached() {
				return errTargetGone
			}
		}
	}
}
