package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"sitemapgen/internal/config"
	"sitemapgen/internal/logger"
)

// defaultConfigFile is picked up from the working directory when --config is not given.
const defaultConfigFile = "sitemap.yaml"

// app carries the state shared by all subcommands.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)

	configPath string
	sourcePath string
	outPath    string
	baseURL    string
	extractor  string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *logger.Logger
}

func newRootCmd(stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) *cobra.Command {
	a := &app{
		stdout:    stdout,
		stderr:    stderr,
		lookupEnv: lookupEnv,
	}

	gen := &generateOptions{}

	root := &cobra.Command{
		Use:   "sitemap",
		Short: "Generate sitemap.xml for the notes site",
		Long: "sitemap builds a sitemaps.org document from the static route table and the note " +
			"ids found in the content source, and writes it to the public directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd.Context(), gen)
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to YAML config (default ./"+defaultConfigFile+" if present)")
	pf.StringVar(&a.sourcePath, "source", "", "Content source file or http(s) URL")
	pf.StringVar(&a.outPath, "out", "", "Destination sitemap path")
	pf.StringVar(&a.baseURL, "base-url", "", "Absolute site base URL")
	pf.StringVar(&a.extractor, "extractor", "", "Id extractor: auto, pattern, syntax or records")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")

	gen.bind(root)

	root.AddCommand(
		newGenerateCmd(a),
		newCheckCmd(a),
		newIDsCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)

	return root
}

// setup resolves the effective configuration and creates the logger.
func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: a.stderr,
	})

	a.log.Debug("configuration loaded", "config", cfg.String())

	return nil
}

// loadConfig layers defaults, the YAML file, the environment and flags, in
// increasing order of precedence.
func (a *app) loadConfig() (*config.Config, error) {
	cfg := config.Default()

	path := a.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", defaultConfigFile, err)
		}
	}

	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}

		cfg = loaded
	}

	if a.lookupEnv != nil {
		cfg.ApplyEnv(a.lookupEnv)
	}

	a.applyFlags(cfg)
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (a *app) applyFlags(cfg *config.Config) {
	if a.sourcePath != "" {
		cfg.Source.Path = a.sourcePath
	}

	if a.outPath != "" {
		cfg.Output.Path = a.outPath
	}

	if a.baseURL != "" {
		cfg.Site.BaseURL = a.baseURL
	}

	if a.extractor != "" {
		cfg.Source.Extractor = a.extractor
	}

	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
}
