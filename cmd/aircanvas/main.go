package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"

	"github.com/ayusman/aircanvas/internal/app"
	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/config"
	"github.com/ayusman/aircanvas/internal/gesture"
	"github.com/ayusman/aircanvas/internal/server"
	"github.com/ayusman/aircanvas/internal/server/api"
	"github.com/ayusman/aircanvas/internal/store"
	"github.com/ayusman/aircanvas/internal/tray"
)

func main() {
	envFile := flag.String("env", "", "load settings from this .env file instead of ./.env")
	useTray := flag.Bool("tray", false, "show the system tray menu")
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	if err := run(cfg, *useTray || cfg.Tray, logger); err != nil {
		logger.Error("air canvas failed", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: "15:04:05",
		}),
	)
}

func run(cfg config.Config, withTray bool, logger *slog.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// persisted settings override the environment
	saved, err := st.Settings().All()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if err := cfg.ApplySettings(saved); err != nil {
		logger.Warn("ignoring stored settings", "err", err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		logger.Warn("camera unavailable, serving canvas only", "err", err)
	}

	webDir := cfg.StaticDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		logger.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:   webDir,
		Store:       st,
		Session:     a.Session(),
		Events:      a,
		Settings:    cfg,
		DrawingsDir: cfg.DrawingsDir(),
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !withTray {
		return srv.ListenAndServe(ctx, cfg.Addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Addr)
	}()

	t := newTray(a, st, cfg, logger, stop)
	go followSession(ctx, a, t)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	// the tray owns the main thread until it quits
	t.Run()
	stop()
	return <-errCh
}

func newTray(a *app.App, st *store.Store, cfg config.Config, logger *slog.Logger, quit func()) *tray.Tray {
	session := a.Session()
	t := tray.New()

	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		logger.Info("capture toggled", "enabled", enabled)
	})
	t.OnUndo(func() {
		if _, err := session.Undo(); err != nil {
			logger.Warn("undo", "err", err)
		}
	})
	t.OnClear(func() {
		if err := session.Clear(); err != nil {
			logger.Warn("clear", "err", err)
		}
	})
	t.OnSave(func() {
		d, err := api.SaveDrawing(st, session, cfg.DrawingsDir(), "", canvas.PNG)
		if err != nil {
			logger.Warn("save drawing", "err", err)
			return
		}
		logger.Info("drawing saved", "id", d.ID, "path", d.Path)
	})
	t.OnOpen(func() {
		if err := openBrowser(localURL(cfg.Addr)); err != nil {
			logger.Warn("open browser", "err", err)
		}
	})
	t.OnQuit(quit)
	return t
}

// followSession mirrors the last recognised gesture and the selected color
// into the tray menu.
func followSession(ctx context.Context, a *app.App, t *tray.Tray) {
	outputs, cancel := a.Subscribe()
	defer cancel()

	var color string
	for {
		select {
		case <-ctx.Done():
			return
		case out, ok := <-outputs:
			if !ok {
				return
			}
			if g := out.Event.Gesture; g != gesture.None {
				t.SetLastGesture(string(g))
			}
			if out.Color.Name != color {
				color = out.Color.Name
				t.SetColor(color)
			}
		}
	}
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
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
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}
	return ""
}
