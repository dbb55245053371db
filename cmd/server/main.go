// Package main is the entry point for the autokalimba API server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/denizsincar29/goerror"

	"github.com/james-see/autokalimba/pkg/api"
	"github.com/james-see/autokalimba/pkg/audio"
	"github.com/james-see/autokalimba/pkg/config"
	"github.com/james-see/autokalimba/pkg/kalimba"
	"github.com/james-see/autokalimba/pkg/logging"
	"github.com/james-see/autokalimba/pkg/steno"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	configPath := flag.String("config", "", "Settings file")
	mute := flag.Bool("mute", false, "Run without opening the audio device")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	logger := logging.New(os.Stderr, *debug)
	e := goerror.NewError(logger)

	cfg, err := config.Load(*configPath)
	e.Must(err, "load config")

	var backend kalimba.Backend
	if !*mute {
		inst, ok := audio.Instruments[cfg.InstrumentName()]
		if !ok {
			e.Must(fmt.Errorf("unknown instrument %q", cfg.Instrument), "select instrument")
		}
		mix, err := audio.OpenSpeaker(audio.DefaultSampleRate, cfg.Latency)
		e.Must(err, "open audio")
		defer audio.CloseSpeaker()
		mix.Volume = cfg.Volume
		backend, err = audio.NewBackend(mix, inst, cfg.SampleDir)
		e.Must(err, "load instrument")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctrl := kalimba.NewController(kalimba.NewRegistry(kalimba.Catalog()), backend, cfg.Settings, logger)
	player := kalimba.NewPlayer(ctrl, cfg.KeyBindings(), steno.DefaultBindings, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = player.Run(ctx)
	}()

	fmt.Printf("Starting autokalimba API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	err = api.StartServer(ctx, *port, player, logger)
	cancel()
	<-done
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
