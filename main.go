package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/saravenpi/firewood/internal/assets"
	"github.com/saravenpi/firewood/internal/config"
	"github.com/saravenpi/firewood/internal/export"
	"github.com/saravenpi/firewood/internal/history"
	"github.com/saravenpi/firewood/internal/logger"
	"github.com/saravenpi/firewood/internal/models"
	"github.com/saravenpi/firewood/internal/profiles"
	"github.com/saravenpi/firewood/internal/scene"
	"github.com/saravenpi/firewood/internal/session"
	"github.com/saravenpi/firewood/internal/ui"
)

const version = "1.0.0"

// app wires the services every entry point needs.
type app struct {
	cfg      *config.Config
	session  *session.Session
	exporter *export.Exporter
	builder  *scene.Builder
	profiles *profiles.Store
	history  *history.Store
}

func newApp(cfg *config.Config) (*app, error) {
	platform, err := models.ParsePlatform(cfg.Chat.Platform)
	if err != nil {
		return nil, err
	}

	fonts, err := assets.NewFontBook(cfg.Fonts.Dirs)
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}

	hist := history.New(cfg.History.DBPath)
	exporter := export.New(fonts, export.NewFileSaver(cfg.Export.OutputDir, cfg.Export.OpenAfterExport), hist, export.Options{
		AppName:            cfg.Export.AppName,
		PixelRatio:         cfg.Export.PixelRatio,
		FallbackPixelRatio: cfg.Export.FallbackPixelRatio,
		ImageTimeout:       cfg.Export.ImageTimeout,
		SettleDelay:        cfg.Export.SettleDelay,
	})
	if len(cfg.Fonts.Families) > 0 {
		exporter.Families = cfg.Fonts.Families
	}

	return &app{
		cfg:      cfg,
		session:  session.New(session.Options{Platform: platform, ShowDateBar: cfg.Chat.ShowDateBar, Date: cfg.Chat.Date}),
		exporter: exporter,
		builder:  &scene.Builder{Images: assets.NewImageLoader("")},
		profiles: profiles.NewStore(cfg.Profiles.Dir),
		history:  hist,
	}, nil
}

// loadScript applies a chat script and fills missing profile pictures from
// the preset store. Relative image paths resolve against the script.
func (a *app) loadScript(path string) error {
	script, err := session.LoadScript(path)
	if err != nil {
		return err
	}
	for _, p := range []*models.Profile{script.Sender, script.Receiver} {
		if p != nil {
			*p = a.profiles.Resolve(*p)
		}
	}
	a.session.Apply(script)
	a.builder.Images = assets.NewImageLoader(filepath.Dir(path))
	return nil
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "-v", "--version":
			fmt.Printf("Firewood v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		case "export":
			if err := runExport(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "tui":
			if err := runTUI(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		default:
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	if err := runTUI(nil); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func commonFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("platform", "", "chat skin: kakaotalk or instagram")
	fs.String("out", "", "directory screenshots are saved to")
	fs.Bool("open", false, "open the screenshot after saving")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("script", "", "YAML chat script to start from")
	return fs
}

func runExport(args []string) error {
	fs := commonFlags("export")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Log.Level)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.history.Close()

	if script, _ := fs.GetString("script"); script != "" {
		if err := a.loadScript(script); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := a.exporter.ExportSession(ctx, a.session, a.builder)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runTUI(args []string) error {
	fs := commonFlags("tui")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the editor needs a terminal; use 'firewood export' in scripts")
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		closer, err := logger.OpenFile(cfg.Log.File)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer closer.Close()
	}
	cfg.Watch(func(next *config.Config, err error) {
		if err != nil {
			logger.L.Warn("config reload failed", "error", err)
			return
		}
		logger.SetLevel(next.Log.Level)
		logger.L.Info("config reloaded", "file", next.File())
	})

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.history.Close()

	if script, _ := fs.GetString("script"); script != "" {
		if err := a.loadScript(script); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := &ui.Env{
		Ctx:        ctx,
		Session:    a.session,
		Exporter:   a.exporter,
		Builder:    a.builder,
		Profiles:   a.profiles,
		History:    a.history,
		IMessageDB: cfg.IMessage.DBPath,
	}

	p := tea.NewProgram(ui.NewMenuModel(env), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func printHelp() {
	help := `Firewood - Fake Chat Screenshot Maker

Usage:
  firewood                 Start the editor
  firewood tui [flags]     Start the editor with flags
  firewood export [flags]  Render a chat to PNG without the editor
  firewood version         Show version information
  firewood help            Show this help message

Flags:
  --script FILE            YAML chat script to start from
  --platform NAME          kakaotalk or instagram
  --out DIR                Directory screenshots are saved to
  --open                   Open the screenshot after saving
  --log-level LEVEL        debug, info, warn or error

Navigation:
  ↑/↓ or j/k        Navigate lists and messages
  Enter             Select/Open item
  ESC               Go back
  q                 Quit from the menu
  ctrl+c            Force quit

Chat Editor:
  n / o             Write a message as me / as them
  e                 Edit the selected message
  d                 Delete the selected message
  s                 Swap roles
  p                 Switch between KakaoTalk and Instagram
  t                 Toggle the KakaoTalk date bar
  m                 Toggle edit mode
  R                 Reset to the sample conversation
  x                 Export a PNG screenshot
  ctrl+s            Save the message (while composing)

Presets:
  enter / s         Use the preset as them / as me
  n, e, d           New, edit, delete

Storage:
  Configuration    ~/.firewood/config.yaml (FIREWOOD_* env vars override)
  Presets          ~/.firewood/profiles/ as YAML files
  Export history   ~/.firewood/history.db

Notes:
  - Import reads your iMessage database (read-only)
  - Screenshots are named <app>-<platform>-chat-<date>.png
`
	fmt.Print(help)
}
