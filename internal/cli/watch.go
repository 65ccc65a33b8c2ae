package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"icalq/internal/calendar"
	appLog "icalq/internal/log"
	"icalq/internal/source"
	"icalq/internal/when"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Horizon string
	Once    bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically reload configured sources and print upcoming dates",
		Long: `Periodically reload the sources listed in the config file and print the
dates from today until --horizon. The schedule is the config "refresh" cron
expression.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Horizon, "horizon", "+7 days", "last date to show")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "refresh once and exit")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, w io.Writer) error {
	if len(opts.Config.Sources) == 0 {
		return errors.New("no sources configured")
	}
	schedule, err := cron.ParseStandard(opts.Config.RefreshCron)
	if err != nil {
		return fmt.Errorf("refresh schedule %q: %w", opts.Config.RefreshCron, err)
	}

	// Ticks may overlap with a slow refresh; keep output in one piece.
	var mu sync.Mutex
	refresh := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := opts.refresh(ctx, w); err != nil {
			appLog.Error("watch refresh failed", err)
		}
	}

	refresh()
	if opts.Once {
		return nil
	}

	c := cron.New()
	c.Schedule(schedule, cron.FuncJob(refresh))
	c.Start()
	appLog.Info("watch started", "refresh", opts.Config.RefreshCron, "sources", len(opts.Config.Sources))

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("watch stopped")
	return nil
}

// refresh loads every source, then prints the upcoming dates of each.
func (o *WatchOptions) refresh(ctx context.Context, w io.Writer) error {
	docOpts, err := o.documentOptions()
	if err != nil {
		return err
	}
	f, err := o.fetcher()
	if err != nil {
		return err
	}

	var remote []source.Source
	for _, s := range o.Config.Sources {
		if source.Classify(s.URL) == source.KindURL {
			remote = append(remote, source.Source{ID: s.ID, URL: s.URL})
		}
	}
	fetched := make(map[string][]byte)
	results, errs := f.FetchAll(ctx, remote)
	for _, res := range results {
		fetched[res.Source.ID] = res.Body
	}

	for _, s := range o.Config.Sources {
		var doc *calendar.Document
		if body, ok := fetched[s.ID]; ok {
			doc = calendar.Parse(string(body), docOpts...)
		} else if source.Classify(s.URL) != source.KindURL {
			doc, err = calendar.Open(ctx, s.URL, docOpts...)
			if err != nil {
				errs = append(errs, err)
				continue
			}
		} else {
			// Fetch failure, already collected.
			continue
		}

		days, err := doc.EventsByDateUntil(when.Text(o.Horizon), 0)
		if err != nil {
			return err
		}

		name := s.Name
		if name == "" {
			name = s.ID
		}
		if o.Format != "json" {
			if _, err := fmt.Fprintf(w, "== %s ==\n", name); err != nil {
				return err
			}
		}
		if err := writeDays(w, o.Format, days, doc.Location()); err != nil {
			return err
		}
	}

	return errors.Join(errs...)
}
