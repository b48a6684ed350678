package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/ayusman/tracksampler/internal/config"
	"github.com/ayusman/tracksampler/internal/logging"
)

const longHelp = `Track an object in a live camera feed and stream cropped PNG samples
of it to an MQTT broker.

On start the tool connects to the broker and waits for the session to be
accepted, then asks for the region to follow (drawn in the video window, or
given with --roi). Every --cadence frames a crop of the tracked region is
published on --topic until --target samples are collected; a short countdown
then ends the session. Press q in the video window, use the tray Quit item or
send SIGINT to stop early.`

var exampleUsage = strings.TrimSpace(`
  tracksampler --broker-host localhost --topic faces
  tracksampler --headless --roi 200,120,160,160 --journal samples.db
  tracksampler --roi auto --cascade haarcascade_frontalface_default.xml
  tracksampler --config $HOME/.tracksampler/config.toml --tray
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := config.DefaultConfig()
	var cfgPath string

	log := logging.New(config.DefaultLogLevel, os.Stderr)

	root := &cobra.Command{
		Use:          "tracksampler",
		Short:        "Stream cropped samples of a tracked object to an MQTT broker",
		Long:         longHelp,
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = config.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && config.FileExists(cfgFile) {
				fc, err := config.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := config.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides the file; explicit flags override both
			if err := config.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log = logging.New(cfg.LogLevel, os.Stderr)
			log.Info().Interface("config", cfg).Msg("configuration")

			return run(cmd.Context(), cfg, log)
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.tracksampler/config.toml)")

	f.StringVar(&cfg.BrokerHost, "broker-host", cfg.BrokerHost, "MQTT broker host")
	f.IntVar(&cfg.BrokerPort, "broker-port", cfg.BrokerPort, "MQTT broker port")
	f.DurationVar(&cfg.KeepAlive, "keepalive", cfg.KeepAlive, "MQTT keepalive interval")
	f.StringVar(&cfg.Topic, "topic", cfg.Topic, "topic samples are published on")
	f.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "MQTT client identifier")
	f.BoolVar(&cfg.ClientIDSuffix, "client-id-suffix", cfg.ClientIDSuffix, "append a random suffix to the client identifier")
	f.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "give up if the broker has not accepted the session within this time")
	f.IntVar(&cfg.ConnectAttempts, "connect-attempts", cfg.ConnectAttempts, "dial attempts before a refused session is fatal")

	f.IntVar(&cfg.Camera, "camera", cfg.Camera, "camera device index")
	f.IntVar(&cfg.Width, "width", cfg.Width, "requested frame width")
	f.IntVar(&cfg.Height, "height", cfg.Height, "requested frame height")
	f.IntVar(&cfg.FPS, "fps", cfg.FPS, "requested capture frame rate (0 keeps the device default)")

	f.StringVar(&cfg.Tracker, "tracker", cfg.Tracker, "tracking algorithm: csrt, kcf or mil")
	f.IntVar(&cfg.Cadence, "cadence", cfg.Cadence, "sample every Nth frame")
	f.IntVar(&cfg.Target, "target", cfg.Target, "number of samples to collect")
	f.IntVar(&cfg.Countdown, "countdown", cfg.Countdown, "countdown ticks after the target is met")
	f.IntVar(&cfg.FramesPerTick, "frames-per-tick", cfg.FramesPerTick, "frames per countdown tick")
	f.StringVar(&cfg.LostPolicy, "lost-policy", cfg.LostPolicy, "on a lost frame: last-known crops the last good box, skip drops the sample")

	f.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run without a video window (requires --roi)")
	f.StringVar(&cfg.ROI, "roi", cfg.ROI, "initial region as x,y,w,h, or auto to detect it with --cascade")
	f.StringVar(&cfg.Cascade, "cascade", cfg.Cascade, "cascade classifier XML used by --roi auto")
	f.StringVar(&cfg.Journal, "journal", cfg.Journal, "SQLite journal path (:memory: keeps it in process)")
	f.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "status server address (empty disables it)")
	f.BoolVar(&cfg.Tray, "tray", cfg.Tray, "show a system tray menu (implies --headless)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("tracksampler")
		os.Exit(1)
	}
}
