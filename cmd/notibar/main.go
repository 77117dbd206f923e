package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nateberkopec/notibar/internal/alert"
	"github.com/nateberkopec/notibar/internal/app"
	"github.com/nateberkopec/notibar/internal/config"
	"github.com/nateberkopec/notibar/internal/desktop"
	"github.com/nateberkopec/notibar/internal/inbox"
	"github.com/nateberkopec/notibar/internal/links"
	"github.com/nateberkopec/notibar/internal/log"
	"github.com/nateberkopec/notibar/internal/sound"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   string
		server       string
		pollInterval time.Duration
		bellEnabled  bool
		desktopOn    bool
		soundFile    string
		logFile      string
		logLevel     string
	)

	flag.StringVar(&configPath, "config", "", "path to a TOML config file")
	flag.StringVar(&server, "server", "", "base URL of the notification server")
	flag.DurationVar(&pollInterval, "interval", config.DefaultInterval, "how often to check for notifications")
	flag.BoolVar(&bellEnabled, "bell", true, "ring the terminal bell when new notifications arrive")
	flag.BoolVar(&desktopOn, "desktop", true, "show desktop notifications when permitted")
	flag.StringVar(&soundFile, "sound", "", "alert sound file (wav, mp3 or flac)")
	flag.StringVar(&logFile, "log-file", "", `log destination ("-" for stderr)`)
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Only flags given on the command line override the loaded config.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.Server = server
		case "interval":
			cfg.Interval = pollInterval
		case "bell":
			cfg.Bell = bellEnabled
		case "desktop":
			cfg.DesktopNotifications = desktopOn
		case "sound":
			cfg.SoundFile = soundFile
		case "log-file":
			cfg.Log.File = logFile
		case "log-level":
			cfg.Log.Level = logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := log.Open(log.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
		File:     cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	lb, err := links.NewBuilder(cfg.Server, cfg.ViewPath, cfg.MarkReadPath)
	if err != nil {
		return err
	}

	client := inbox.New(
		lb.Resolve(cfg.Endpoint),
		inbox.WithToken(cfg.Token),
		inbox.WithCookie(cfg.Cookie),
		inbox.WithTimeout(cfg.RequestTimeout),
	)

	player := sound.New(sound.Config{File: cfg.SoundFile, Volume: cfg.Volume}, logger)
	alerter := alert.NewAlerter(player, desktop.New(""), logger)

	ctx := log.WithFields(context.Background(), logger, "endpoint", client.Endpoint())
	logger.Infof(ctx, "watching every %s", cfg.Interval)

	program := tea.NewProgram(
		app.New(app.Config{
			Client:       client,
			Links:        lb,
			Alerter:      alerter,
			Permission:   desktop.NewRequester(cfg.DesktopNotifications, logger),
			Logger:       logger,
			PollInterval: cfg.Interval,
			BellEnabled:  cfg.Bell,
		}),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}
