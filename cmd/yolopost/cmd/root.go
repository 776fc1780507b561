// Package cmd implements the yolopost command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/yolopost/internal/config"
	"github.com/MeKo-Tech/yolopost/internal/version"
)

// flagBinding ties a command flag to a viper configuration key.
type flagBinding struct {
	flag string
	key  string
}

// app carries per-invocation state. Every root command gets its own viper
// instance so in-process runs (tests, feature scenarios) never share flags.
type app struct {
	cfgFile  string
	v        *viper.Viper
	loader   *config.Loader
	cfg      *config.Config
	bindings map[*cobra.Command][]flagBinding
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the complete command tree.
func NewRootCommand() *cobra.Command {
	a := &app{
		v:        viper.New(),
		bindings: make(map[*cobra.Command][]flagBinding),
	}
	a.loader = config.NewLoaderWithViper(a.v)

	rootCmd := &cobra.Command{
		Use:   "yolopost",
		Short: "YOLOv7 output tensor postprocessing",
		Long: `Decode raw YOLOv7 output tensors into object detections.

yolopost turns the network's raw float32 output (3 scales x 3 anchors,
5+classes channels per cell) into bounding boxes on the original image:
- confidence gating and per-cell class selection
- class-aware non-maximum suppression
- projection back to original image coordinates

Examples:
  yolopost decode frame.bin --size 1920x1080
  yolopost decode dumps/*.bin --format json --workers 8
  yolopost synth test.bin --object 0,0,40,40,0,0.9
  yolopost bench --iterations 5000`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}
	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/yolopost, /etc/yolopost)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	a.bind(rootCmd, rootCmd.PersistentFlags(),
		flagBinding{flag: "verbose", key: "verbose"},
		flagBinding{flag: "log-level", key: "log_level"},
	)

	rootCmd.AddCommand(
		a.newDecodeCommand(),
		a.newSynthCommand(),
		a.newBenchCommand(),
		a.newConfigCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

// bind records flag bindings for cmd. They are applied to viper only when
// cmd is the one executing, so two commands may bind the same key.
func (a *app) bind(cmd *cobra.Command, flags *pflag.FlagSet, bindings ...flagBinding) {
	for _, b := range bindings {
		if flags.Lookup(b.flag) == nil {
			panic(fmt.Sprintf("binding unknown flag %q on %s", b.flag, cmd.Name()))
		}
	}
	a.bindings[cmd] = append(a.bindings[cmd], bindings...)
}

// initConfig binds the executing command's flags, loads the configuration
// and installs the process logger.
func (a *app) initConfig(cmd *cobra.Command) error {
	cmds := []*cobra.Command{cmd.Root()}
	if cmd != cmd.Root() {
		cmds = append(cmds, cmd)
	}
	for _, c := range cmds {
		for _, b := range a.bindings[c] {
			f := c.Flags().Lookup(b.flag)
			if f == nil {
				f = c.PersistentFlags().Lookup(b.flag)
			}
			if err := a.v.BindPFlag(b.key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", b.flag, err)
			}
		}
	}

	cfg, err := a.loader.LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg))
	if used := a.loader.GetConfigFileUsed(); used != "" {
		slog.Debug("configuration loaded", "file", used)
	}
	return nil
}

// config returns the loaded configuration.
func (a *app) config() (*config.Config, error) {
	if a.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return a.cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(cfg),
	}))
}

func parseLogLevel(cfg *config.Config) slog.Level {
	// Verbose wins for backward compatibility with -v.
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
