// Package main is the entry point for the autokalimba CLI
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/james-see/autokalimba/pkg/api"
	"github.com/james-see/autokalimba/pkg/audio"
	"github.com/james-see/autokalimba/pkg/config"
	"github.com/james-see/autokalimba/pkg/kalimba"
	"github.com/james-see/autokalimba/pkg/logging"
	"github.com/james-see/autokalimba/pkg/steno"
	"github.com/james-see/autokalimba/pkg/strum"
	"github.com/james-see/autokalimba/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	instrument string
	samplesDir string
	lowestBass int
	strumDelay time.Duration
	strumStyle string
	debug      bool
	mute       bool
	logFile    string
	noSave     bool
	stenoPath  string
	serverPort int
	strumCount int
	chordRoot  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "autokalimba",
	Short: "A chord instrument for the computer keyboard, steno keyboards and touch clients",
	Long: `autokalimba plays bass notes and chord shapes that follow each other:
chords voice themselves above the last bass note and sounding notes glide when
the harmony changes.

Examples:
  autokalimba play
  autokalimba play --steno auto --instrument rhodes
  autokalimba serve --port 8080
  autokalimba targets --root c
  autokalimba strum down --count 4`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	RunE:  runPlay,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List targets with the notes they play",
	RunE:  runTargets,
}

var strumCmd = &cobra.Command{
	Use:       "strum [style]",
	Short:     "Show the onset delays of a strum style",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"none", "random", "up", "down", "timed"},
	RunE:      runStrum,
}

func init() {
	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Settings file (default ~/.config/autokalimba/settings.json)")
	pf.StringVarP(&instrument, "instrument", "i", "", "Instrument (synth, piano, rhodes)")
	pf.StringVar(&samplesDir, "samples", "", "Directory holding instrument samples")
	pf.IntVar(&lowestBass, "lowest-bass", 0, "Lowest bass note in semitones from A3")
	pf.DurationVar(&strumDelay, "strum-delay", 0, "Strum spread")
	pf.StringVar(&strumStyle, "strum-style", "", "Strum style (none, random, up, down, timed)")
	pf.BoolVar(&debug, "debug", false, "Debug logging")
	pf.BoolVar(&mute, "mute", false, "Run without opening the audio device")
	pf.StringVar(&logFile, "log", "", "Write logs to this file")
	pf.BoolVar(&noSave, "no-save", false, "Do not write settings changes back to the settings file")

	// play command
	playCmd.Flags().StringVar(&stenoPath, "steno", "", "Steno keyboard device path, or \"auto\" to find it")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")
	serveCmd.Flags().StringVar(&stenoPath, "steno", "", "Steno keyboard device path, or \"auto\" to find it")

	// targets command
	targetsCmd.Flags().StringVar(&chordRoot, "root", "a", "Bass root the chords are shown over")

	// strum command
	strumCmd.Flags().IntVarP(&strumCount, "count", "n", 4, "Notes in the chord")

	// Add commands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(strumCmd)
}

// loadConfig reads the settings file and applies the flags the user set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("instrument") {
		cfg.Instrument = instrument
	}
	if flags.Changed("samples") {
		cfg.SampleDir = samplesDir
	}
	if flags.Changed("lowest-bass") {
		cfg.Settings.LowestBassNote = lowestBass
	}
	if flags.Changed("strum-delay") {
		cfg.Settings.StrumDelay = strumDelay
	}
	if flags.Changed("strum-style") {
		s, err := strum.ParseStyle(strumStyle)
		if err != nil {
			return nil, err
		}
		cfg.Settings.StrumStyle = s
	}
	if flags.Changed("steno") {
		cfg.Steno.Device = stenoPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr, or to --log. The terminal interface owns the
// screen, so play discards logs unless a file is given.
func newLogger(quiet bool) (*slog.Logger, func(), error) {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log: %w", err)
		}
		return logging.New(f, debug), func() { _ = f.Close() }, nil
	}
	if quiet {
		return logging.Discard(), func() {}, nil
	}
	return logging.New(os.Stderr, debug), func() {}, nil
}

// openBackend opens the audio device and builds the configured instrument.
// Missing samples fall back to the synth.
func openBackend(cfg *config.Config, logger *slog.Logger) (kalimba.Backend, func(), error) {
	if mute {
		return nil, func() {}, nil
	}
	inst, ok := audio.Instruments[cfg.InstrumentName()]
	if !ok {
		return nil, nil, fmt.Errorf("unknown instrument %q", cfg.Instrument)
	}

	mix, err := audio.OpenSpeaker(audio.DefaultSampleRate, cfg.Latency)
	if err != nil {
		return nil, nil, err
	}
	mix.Volume = cfg.Volume

	backend, err := audio.NewBackend(mix, inst, cfg.SampleDir)
	if err != nil {
		logger.Warn("falling back to synth", "instrument", inst.Name, "err", err)
		backend = audio.NewSynth(mix, inst.Register, nil)
	}
	logger.Info("audio ready", "instrument", inst.Name, "rate", mix.Rate, "latency", cfg.Latency)
	return backend, audio.CloseSpeaker, nil
}

// startPlayer builds the player and runs it until ctx is done. wait blocks
// until it has released everything and pending settings are saved.
func startPlayer(ctx context.Context, cfg *config.Config, backend kalimba.Backend, logger *slog.Logger) (player *kalimba.Player, wait func()) {
	ctrl := kalimba.NewController(kalimba.NewRegistry(kalimba.Catalog()), backend, cfg.Settings, logger)
	player = kalimba.NewPlayer(ctrl, cfg.KeyBindings(), steno.DefaultBindings, logger)

	var saver *config.Saver
	if path := settingsPath(); path != "" && !noSave {
		saver = config.NewSaver(path, config.SaveDelay, logger)
		ctrl.OnSettings(saver.Update)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = player.Run(ctx)
	}()
	return player, func() {
		<-done
		if saver == nil {
			return
		}
		if err := saver.Flush(); err != nil {
			logger.Warn("saving settings failed", "err", err)
		}
	}
}

func settingsPath() string {
	if configPath != "" {
		return configPath
	}
	path, err := config.Path()
	if err != nil {
		return ""
	}
	return path
}

// listenSteno feeds reports from the steno device to player until ctx is
// done or the device goes away.
func listenSteno(ctx context.Context, sc config.StenoConfig, player *kalimba.Player, logger *slog.Logger) error {
	kb, err := steno.Open(ctx, sc.Device)
	if err != nil {
		return err
	}
	defer func() { _ = kb.Close() }()
	defer func() { _ = player.StenoReset(context.Background()) }()

	logger.Info("steno keyboard open", "device", kb.Info.Path, "product", kb.Info.Product)
	r := steno.NewReader(kb, sc.ReportSize, sc.ReportID)
	err = r.Listen(ctx, func(bits uint32) error {
		return player.StenoReport(ctx, bits)
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, kalimba.ErrStopped) {
		return nil
	}
	return err
}

func goSteno(ctx context.Context, cfg *config.Config, player *kalimba.Player, logger *slog.Logger) {
	if cfg.Steno.Device == "" {
		return
	}
	go func() {
		if err := listenSteno(ctx, cfg.Steno, player, logger); err != nil {
			logger.Error("steno keyboard", "device", cfg.Steno.Device, "err", err)
			return
		}
		logger.Info("steno keyboard closed", "device", cfg.Steno.Device)
	}()
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(true)
	if err != nil {
		return err
	}
	defer closeLog()

	backend, closeAudio, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer closeAudio()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	player, wait := startPlayer(ctx, cfg, backend, logger)
	goSteno(ctx, cfg, player, logger)

	err = tui.Run(ctx, player, cfg.KeyBindings())
	cancel()
	wait()
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	backend, closeAudio, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer closeAudio()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	player, wait := startPlayer(ctx, cfg, backend, logger)
	goSteno(ctx, cfg, player, logger)

	fmt.Printf("Starting autokalimba API server on port %d...\n", serverPort)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", serverPort)

	err = api.StartServer(ctx, serverPort, player, logger)
	cancel()
	wait()
	return err
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	inst, ok := audio.Instruments[cfg.InstrumentName()]
	if !ok {
		return fmt.Errorf("unknown instrument %q", cfg.Instrument)
	}
	table, err := targetTable(cfg.Settings, chordRoot, inst.Register.Fold)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

func runStrum(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	style := cfg.Settings.StrumStyle
	if len(args) == 1 {
		if style, err = strum.ParseStyle(args[0]); err != nil {
			return err
		}
	}
	if strumCount < 1 {
		return fmt.Errorf("count must be positive, got %d", strumCount)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strumTable(style, strumCount, cfg.Settings.StrumDelay, nil))
	return nil
}
