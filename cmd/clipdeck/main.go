package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/example/clipdeck/internal/config"
	"github.com/example/clipdeck/internal/logging"
	"github.com/example/clipdeck/internal/notify"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type runnable interface{ Run() error }

type root struct {
	fs      *flag.FlagSet
	program string

	config   *config.Config
	notifier *notify.Notifier

	configPath    string
	logLevel      string
	logFormat     string
	captureAlerts bool
	saveAlerts    bool
	copyAlerts    bool
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	r := &root{
		fs:      flag.NewFlagSet("clipdeck", flag.ExitOnError),
		program: "clipdeck",
	}
	r.fs.StringVar(&r.configPath, "config", "", "path to the TOML config file (default: the user config dir)")
	r.fs.StringVar(&r.logLevel, "log-level", "", "log level: debug, info, warn, error")
	r.fs.StringVar(&r.logFormat, "log-format", "", "log format: auto, text, json")
	r.fs.BoolVar(&r.captureAlerts, "notify-capture", true, "show a desktop notification after capturing the screen")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", true, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", true, "show a desktop notification after copying to the clipboard")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}

	path := r.configPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}
	r.config = cfg
	r.configPath = path

	level := r.logLevel
	if level == "" {
		level = cfg.Log.Level
	}
	format := r.logFormat
	if format == "" {
		format = cfg.Log.Format
	}
	logging.Setup(logging.ParseFormat(format), logging.ParseLevel(level))

	r.notifier = notify.New(notify.DefaultPreferences())
	r.notifier.Enable(notify.EventCapture, r.captureAlerts && cfg.Notify.Capture)
	r.notifier.Enable(notify.EventSave, r.saveAlerts && cfg.Notify.Save)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts && cfg.Notify.Copy)

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd      runnable
		parseErr error
	)
	switch cmdName {
	case "daemon":
		cmd, parseErr = parseDaemonCmd(subArgs, r)
	case "capture":
		cmd, parseErr = parseCaptureCmd(subArgs, r)
	case "history":
		cmd, parseErr = parseHistoryCmd(subArgs, r)
	case "config":
		cmd, parseErr = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		parseErr = &UsageError{of: r}
	}
	if parseErr != nil {
		return parseErr
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
