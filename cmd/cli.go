// Package cmd wires the harness's cobra subcommands to the spectral
// engine and its I/O adapters: run (live duplex stream), record (live
// stream plus a WAV capture of the resynthesized output), replay
// (offline WAV-to-WAV render), list-devices, and monitor (live stream
// with a terminal oscillator-bank view).
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"spectral/internal/audio"
	"spectral/internal/config"
	"spectral/internal/dsp/oscillator"
	"spectral/internal/engine"
	speclog "spectral/internal/log"
	"spectral/internal/transport"
	"spectral/internal/tui"
	"spectral/pkg/build"
)

var configPath string

// Execute builds and runs the root command against os.Args.
func Execute() error {
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Realtime spectral resynthesis engine",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "C", "", "Path to a YAML config file")

	rootCmd.AddCommand(runCmd(), recordCmd(), replayCmd(), listDevicesCmd(), monitorCmd())

	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if level, ok := speclog.ParseLevel(cfg.LogLevel); ok {
		speclog.SetLevel(level)
	}
	return cfg, nil
}

func newEngine(cfg *config.Config) (*engine.Engine, error) {
	var window engine.AnalysisWindow
	switch cfg.Engine.Window {
	case "hamming":
		window = engine.Hamming
	case "bartlett":
		window = engine.Bartlett
	default:
		window = engine.Hann
	}

	eng, err := engine.NewEngine(engine.Config{
		FFTSize:       cfg.Engine.FFTSize,
		WavetableSize: cfg.Engine.WavetableSize,
		MaxVoices:     cfg.Engine.MaxVoices,
		SampleRate:    cfg.Audio.SampleRate,
		Window:        window,
	})
	if err != nil {
		return nil, fmt.Errorf("cmd: %w", err)
	}

	eng.UpdateParameters(engine.HostParams{
		Waveform:         waveform(cfg.Engine.Waveform),
		Gain:             cfg.Engine.Gain,
		Feedback:         cfg.Engine.Feedback,
		GlideSteps:       cfg.Engine.GlideSteps,
		Voices:           cfg.Engine.Voices,
		ContinuousTuning: cfg.Engine.ContinuousTuning,
		TuneIntervalMs:   cfg.Engine.TuneIntervalMs,
		FFTThreshold:     cfg.Engine.FFTThreshold,
	})
	return eng, nil
}

func waveform(name string) oscillator.Waveform {
	switch name {
	case "triangle":
		return oscillator.Triangle
	case "saw":
		return oscillator.Saw
	case "square":
		return oscillator.Square
	default:
		return oscillator.Sine
	}
}

// startTelemetry opens the websocket broadcaster and a ticking
// publisher goroutine when cfg.Transport.Enabled. With transport
// disabled but debug logging on, it falls back to logging each
// snapshot instead of dropping it silently; otherwise it is a no-op.
func startTelemetry(cfg *config.Config, eng *engine.Engine) (transport.Transport, func()) {
	var tel transport.Transport
	switch {
	case cfg.Transport.Enabled:
		tel = transport.NewTelemetry(cfg.Transport.ListenAddr)
	case cfg.Debug:
		tel = transport.NewLoggingTransport()
	default:
		return nil, func() {}
	}
	done := make(chan struct{})

	go func() {
		interval := cfg.Transport.SendInterval
		if interval <= 0 {
			interval = 33 * time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = tel.Send(snapshot(eng))
			}
		}
	}()

	return tel, func() {
		close(done)
		if err := tel.Close(); err != nil {
			speclog.Errorf("cmd: close telemetry: %v", err)
		}
	}
}

func snapshot(eng *engine.Engine) transport.Snapshot {
	peaks := eng.BinMag()
	bins := make([]transport.BinSnapshot, len(peaks))
	for i, p := range peaks {
		bins[i] = transport.BinSnapshot{Bin: p.Bin, Magnitude: float32(p.Magnitude)}
	}

	voices := eng.VoiceStates()
	vs := make([]transport.VoiceSnapshot, len(voices))
	for i, v := range voices {
		vs[i] = transport.VoiceSnapshot{Amplitude: float32(v.Amplitude), Increment: float32(v.Increment)}
	}

	return transport.Snapshot{Bins: bins, Voices: vs, Timestamp: transport.NowMillis()}
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the engine against a live input/output device",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, err := newEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()

			lr, err := audio.NewLiveRunner(eng, audio.LiveOptions{
				DeviceID:        cfg.Audio.InputDevice,
				Channels:        1,
				FramesPerBuffer: cfg.Audio.FramesPerBuffer,
				LowLatency:      cfg.Audio.LowLatency,
			})
			if err != nil {
				return err
			}
			if err := lr.Start(); err != nil {
				return err
			}

			_, stopTelemetry := startTelemetry(cfg, eng)
			defer stopTelemetry()

			speclog.Info("engine running, press Ctrl+C to stop")
			waitForSignal()
			return lr.Stop()
		},
	}
}

func recordCmd() *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Run the engine live and capture the resynthesized output to a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, err := newEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()

			lr, err := audio.NewLiveRunner(eng, audio.LiveOptions{
				DeviceID:        cfg.Audio.InputDevice,
				Channels:        1,
				FramesPerBuffer: cfg.Audio.FramesPerBuffer,
				LowLatency:      cfg.Audio.LowLatency,
			})
			if err != nil {
				return err
			}
			if err := lr.Start(); err != nil {
				return err
			}
			if err := lr.StartRecording(outputFile); err != nil {
				return err
			}

			_, stopTelemetry := startTelemetry(cfg, eng)
			defer stopTelemetry()

			speclog.Infof("recording to %s, press Ctrl+C to stop", outputFile)
			waitForSignal()

			if err := lr.StopRecording(); err != nil {
				speclog.Errorf("cmd: stop recording: %v", err)
			}
			return lr.Stop()
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "recording.wav", "Output WAV file path")
	return cmd
}

func replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <input.wav> <output.wav>",
		Short: "Render an input WAV file through the engine into an output WAV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, err := newEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			return audio.RenderWAV(args[0], args[1], eng)
		},
	}
	return cmd
}

func listDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-devices",
		Short: "List available audio input/output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()
			return audio.ListDevices()
		},
	}
}

func monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the engine live with a terminal oscillator-bank monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, err := newEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()

			lr, err := audio.NewLiveRunner(eng, audio.LiveOptions{
				DeviceID:        cfg.Audio.InputDevice,
				Channels:        1,
				FramesPerBuffer: cfg.Audio.FramesPerBuffer,
				LowLatency:      cfg.Audio.LowLatency,
			})
			if err != nil {
				return err
			}
			if err := lr.Start(); err != nil {
				return err
			}
			defer lr.Stop()

			_, stopTelemetry := startTelemetry(cfg, eng)
			defer stopTelemetry()

			return tui.StartMonitorUI(eng)
		},
	}
}
