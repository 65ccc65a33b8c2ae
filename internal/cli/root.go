package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"icalq/internal/calendar"
	"icalq/internal/config"
	appLog "icalq/internal/log"
	"icalq/internal/source"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Timezone   string
	Format     string // "json" | "text"
	Verbose    bool

	// Config is populated by PersistentPreRunE.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the icalq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "icalq",
		Short: "Query iCalendar feeds by date",
		Long: `icalq reads an iCalendar document from a URL, a file or literal text,
expands recurring events and answers date range queries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config (created with defaults if missing)")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "timezone", "", "IANA zone for date truncation (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewDaysCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() error {
	cfg := config.DefaultConfig()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if o.Timezone != "" {
		cfg.Timezone = o.Timezone
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := appLog.ParseLevel(cfg.LogLevel)
	if o.Verbose {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	o.Config = cfg
	return nil
}

// fetcher builds the HTTP fetcher described by the config.
func (o *RootOptions) fetcher() (*source.Fetcher, error) {
	timeout, err := o.Config.Timeout()
	if err != nil {
		return nil, err
	}
	return source.NewFetcher(o.Config.CacheDir, timeout), nil
}

// documentOptions maps the config onto calendar options.
func (o *RootOptions) documentOptions() ([]calendar.Option, error) {
	loc, err := o.Config.Location()
	if err != nil {
		return nil, err
	}
	f, err := o.fetcher()
	if err != nil {
		return nil, err
	}
	return []calendar.Option{
		calendar.WithLocation(loc),
		calendar.WithMaxOccurrences(o.Config.MaxOccurrences),
		calendar.WithLoader(source.NewLoader(f)),
	}, nil
}
