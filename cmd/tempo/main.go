// cmd/tempo/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	stlog "log" // Use standard log for FATAL errors before logger is ready
	"os"

	"github.com/bethropolis/tempo/internal/config"
	"github.com/bethropolis/tempo/internal/editor"
	"github.com/bethropolis/tempo/internal/logger"
	"github.com/bethropolis/tempo/internal/plugin"
	"github.com/bethropolis/tempo/plugins/autosave"
	"github.com/bethropolis/tempo/plugins/notestats"
)

// allLayers resnaps every note regardless of layer.
const allLayers = -1

// cliOptions are the editing flags specific to the command-line tool.
type cliOptions struct {
	layer  int
	flip   bool
	offset int
	output string
	dryRun bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		stlog.Printf("tempo: %v", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	// --- Argument & Flag Parsing ---
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	var opts cliOptions
	fs.IntVar(&opts.layer, "layer", allLayers, "Resnap only this editor layer (0 is the default layer, -1 all)")
	fs.BoolVar(&opts.flip, "flip", false, "Mirror note lanes before resnapping")
	fs.IntVar(&opts.offset, "offset", 0, "Shift notes by this many ms before resnapping")
	fs.StringVar(&opts.output, "o", "", "Write the map here instead of overwriting the input")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Report what would change without writing")

	var flags config.Flags
	rest, err := flags.ParseFlags(fs, args)
	if err != nil {
		return err
	}
	if *flags.Version {
		fmt.Fprintf(stdout, "%s %s\n", config.AppName, config.Version)
		return nil
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: %s [flags] <map.toml>", config.AppName)
	}
	mapPath := rest[0]

	// --- Configuration ---
	cfg, cfgErr := config.LoadConfig(*flags.ConfigFilePath, &flags)

	// --- Logger Initialization ---
	logOutput, closeLog, err := openLog(cfg.Logger.LogFilePath)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Init(cfg.Logger, logOutput)
	logger.SetDebugFilter(*flags.DebugLog)
	if cfgErr != nil {
		logger.Warnf("Using default configuration: %v", cfgErr)
	}
	logger.Infof("Starting %s %s on '%s'", config.AppName, config.Version, mapPath)

	// --- Session & Plugins ---
	if opts.dryRun || opts.output != "" {
		// Autosave writes to the input path, which these modes leave untouched.
		disablePlugin(cfg, "autosave")
	}
	session, err := editor.Open(mapPath, editor.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	plugins := plugin.NewManager()
	for _, p := range []plugin.Plugin{autosave.New(), notestats.New()} {
		if err := plugins.Register(p); err != nil {
			logger.Warnf("%v", err)
		}
	}
	if err := plugins.InitializePlugins(session); err != nil {
		logger.Warnf("Some plugins failed to initialize: %v", err)
	}
	defer plugins.ShutdownPlugins()

	if err := edit(session, opts, stdout); err != nil {
		return err
	}

	// --- Output ---
	if err := session.ExecuteCommand("stats"); err == nil {
		fmt.Fprintln(stdout, session.StatusBar().Message())
	}
	if opts.dryRun {
		fmt.Fprintln(stdout, "Dry run: map not written")
		return nil
	}
	if opts.output == "" && !session.HasUnsavedChanges() {
		fmt.Fprintln(stdout, "No changes to write")
		return nil
	}
	out := opts.output
	if out == "" {
		out = mapPath
	}
	if err := session.SaveAs(out); err != nil {
		return err
	}
	fmt.Fprintln(stdout, session.StatusBar().Message())
	logger.Infof("%s finished.", config.AppName)
	return nil
}

// edit applies the requested offset, flip and resnap, printing the status
// message of each step.
func edit(s *editor.Session, opts cliOptions, stdout io.Writer) error {
	if opts.layer == allLayers {
		s.SelectAll()
	} else if err := s.SelectLayer(opts.layer); err != nil {
		return fmt.Errorf("layer %d: %w", opts.layer, err)
	}

	report := func(format string, args ...interface{}) {
		fmt.Fprintf(stdout, format+"\n", args...)
	}

	if opts.offset != 0 && len(s.Selection()) > 0 {
		if err := s.MoveSelection(opts.offset, 0); err != nil {
			return err
		}
		report("Moved %d notes by %d ms", len(s.Selection()), opts.offset)
	}
	if opts.flip && len(s.Selection()) > 0 {
		if err := s.FlipSelection(); err != nil {
			return err
		}
		report("Flipped %d notes", len(s.Selection()))
	}

	var err error
	if opts.layer == allLayers {
		_, err = s.ResnapAll(nil)
	} else {
		_, err = s.ResnapLayer(opts.layer, nil)
	}
	if err != nil {
		return err
	}
	report("%s", s.StatusBar().Message())
	return nil
}

// disablePlugin sets enabled = false in the [plugins.<name>] table.
func disablePlugin(cfg *config.Config, name string) {
	if cfg.Plugins == nil {
		cfg.Plugins = make(map[string]map[string]interface{})
	}
	if cfg.Plugins[name] == nil {
		cfg.Plugins[name] = make(map[string]interface{})
	}
	cfg.Plugins[name]["enabled"] = false
	logger.Debugf("Plugin '%s' disabled for this run", name)
}

// openLog opens the log destination. "-" is stderr and "" the default log file.
func openLog(path string) (io.Writer, func(), error) {
	switch path {
	case "-":
		return os.Stderr, func() {}, nil
	case "":
		path = config.DefaultLogFileName
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
	}
	return logFile, func() { logFile.Close() }, nil
}
