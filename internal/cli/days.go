package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"icalq/internal/calendar"
	"icalq/internal/when"
)

// DaysOptions holds flags for the days command.
type DaysOptions struct {
	*RootOptions
	Between []string
	Since   string
	Until   string
	Limit   int
}

// NewDaysCommand creates the days command.
func NewDaysCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DaysOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "days <url|path|text>",
		Short: "Show occurrences grouped by date",
		Long: `Show occurrences grouped by date.

Without a range flag every date is shown. Dates accept YYYY-MM-DD and most
common formats, "today", "tomorrow", relative offsets such as "+2 weeks" and
"@<unix seconds>".

  --between A,B   A <= date < B
  --since A       A <= date
  --until B       today <= date <= B

Example:
  icalq days https://example.com/team.ics --between 2024-01-01,2024-02-01 --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDocument(cmd, rootOpts, args[0])
			if err != nil {
				return err
			}
			days, err := opts.query(doc)
			if err != nil {
				return err
			}
			return writeDays(cmd.OutOrStdout(), opts.Format, days, doc.Location())
		},
	}

	cmd.Flags().StringSliceVar(&opts.Between, "between", nil, "start,end (end excluded)")
	cmd.Flags().StringVar(&opts.Since, "since", "", "first date to include")
	cmd.Flags().StringVar(&opts.Until, "until", "", "last date to include, starting today")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of dates (0 = all)")
	cmd.MarkFlagsMutuallyExclusive("between", "since", "until")

	return cmd
}

func (o *DaysOptions) query(doc *calendar.Document) ([]calendar.Day, error) {
	switch {
	case len(o.Between) > 0:
		if len(o.Between) != 2 {
			return nil, errors.New("--between needs exactly two dates: start,end")
		}
		return doc.EventsByDateBetween(when.Text(o.Between[0]), when.Text(o.Between[1]), o.Limit)
	case o.Since != "":
		return doc.EventsByDateSince(when.Text(o.Since), o.Limit)
	case o.Until != "":
		return doc.EventsByDateUntil(when.Text(o.Until), o.Limit)
	default:
		days := doc.EventsByDate()
		if o.Limit > 0 && len(days) > o.Limit {
			days = days[:o.Limit]
		}
		return days, nil
	}
}
