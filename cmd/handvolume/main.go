package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/handvolume/internal/app"
	"github.com/ayusman/handvolume/internal/config"
	"github.com/ayusman/handvolume/internal/logging"
	"github.com/ayusman/handvolume/internal/server"
	"github.com/ayusman/handvolume/internal/store"
	"github.com/ayusman/handvolume/internal/tray"
)

const (
	appName          = "handvolume"
	sessionRetention = 90 * 24 * time.Hour
)

func main() {
	configDir := flag.String("config", config.DefaultDir(), "directory holding config.json")
	saveConfig := flag.Bool("save-config", false, "write the effective config to the config dir and exit")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if *saveConfig {
		if err := cfg.Save(*configDir); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", filepath.Join(*configDir, config.FileName))
		return
	}

	log, closeLog := setupLogging(cfg)
	defer closeLog()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("handvolume stopped with error")
		closeLog()
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) (zerolog.Logger, func()) {
	lc := cfg.Logging()
	start := time.Now()

	opts := logging.Options{Level: lc.Level}
	file, fileErr := logging.OpenLogFile(lc.Dir, appName, start)
	if fileErr == nil {
		opts.File = file
	}

	log := logging.Setup(opts)
	if fileErr != nil {
		log.Warn().Err(fileErr).Str("dir", lc.Dir).Msg("logging to console only")
	}

	if lc.Retention > 0 {
		if n, err := logging.CleanOldLogs(lc.Dir, lc.Retention, start); err != nil {
			log.Warn().Err(err).Msg("failed to clean old logs")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("old log files removed")
		}
	}

	return log, func() {
		if file != nil {
			file.Close()
		}
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().Str("config", cfg.Dir()).Msg("HandVolume - hand gesture volume control")

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(filepath.Join(dataDir, appName+".db"))
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	if n, err := st.Sessions().Prune(time.Now().Add(-sessionRetention)); err != nil {
		log.Warn().Err(err).Msg("failed to prune old sessions")
	} else if n > 0 {
		log.Debug().Int64("removed", n).Msg("old sessions pruned")
	}

	a, err := app.New(app.Config{
		Gesture:         cfg.GestureConfig(),
		Camera:          cfg.Camera(),
		Detector:        cfg.Detector(),
		Sink:            cfg.Sink(),
		ChangeThreshold: cfg.Volume().MinChangeThreshold,
		Store:           st,
	}, log)
	if err != nil {
		return err
	}

	if last, err := st.Settings().GetInt(store.SettingLastVolume, -1); err == nil && last >= 0 {
		log.Info().Int("volume", last).Msg("last session ended at this volume")
	}

	enabled := true
	if v, err := st.Settings().Get(store.SettingEnabled); err == nil {
		enabled = v != "false"
	}
	a.SetEnabled(enabled)
	a.AddListener(func(s app.State) {
		log.Trace().Int("volume", s.Volume).Int("fingers", s.Fingers).Str("pose", string(s.Pose)).Msg("frame")
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvCfg := cfg.Server()
	var srvErr chan error
	if srvCfg.Enabled {
		hub := server.NewHub(log, func() any { return a.State() })
		a.AddListener(func(s app.State) { hub.Broadcast(s) })

		staticDir := srvCfg.StaticDir
		if staticDir == "" {
			staticDir = findWebDir(cfg.Dir())
		}
		if staticDir != "" {
			log.Info().Str("dir", staticDir).Msg("serving static files")
		}

		srv := server.New(server.Config{
			StaticDir: staticDir,
			Store:     st,
			App:       a,
			Monitor:   a.Monitor(),
			Preview:   a.Preview(),
			Hub:       hub,
			Log:       log,
		})

		srvErr = make(chan error, 1)
		go func() { srvErr <- srv.Run(ctx, srvCfg.Addr) }()
	}

	if err := a.Start(); err != nil {
		return err
	}
	defer a.Stop()

	if cfg.TrayEnabled() {
		t := tray.New(a.IsEnabled())
		t.OnToggle(func(enabled bool) {
			a.SetEnabled(enabled)
			if err := st.Settings().Set(store.SettingEnabled, fmt.Sprint(enabled)); err != nil {
				log.Warn().Err(err).Msg("failed to persist enabled state")
			}
		})
		t.OnSettings(func() {
			if err := openBrowser(settingsURL(srvCfg.Addr)); err != nil {
				log.Warn().Err(err).Msg("failed to open browser")
			}
		})
		t.OnQuit(stop)
		a.AddListener(t.Update)

		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray needs the main goroutine.
		t.Run()
		stop()
	} else {
		select {
		case <-ctx.Done():
		case err := <-srvErr:
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info().Msg("shutting down")

	if srvErr != nil {
		if err := <-srvErr; err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	return nil
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <configDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(configDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(configDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}
