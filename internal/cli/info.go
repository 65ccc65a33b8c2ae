package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"icalq/internal/calendar"
)

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <url|path|text>",
		Short: "Show calendar metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDocument(cmd, rootOpts, args[0])
			if err != nil {
				return err
			}
			return writeInfo(cmd.OutOrStdout(), rootOpts.Format, doc)
		},
	}
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "events <url|path|text>",
		Short: "List events in source order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDocument(cmd, rootOpts, args[0])
			if err != nil {
				return err
			}
			return writeEvents(cmd.OutOrStdout(), rootOpts.Format, doc.Events(), doc.Location())
		},
	}
}

func openDocument(cmd *cobra.Command, rootOpts *RootOptions, input string) (*calendar.Document, error) {
	opts, err := rootOpts.documentOptions()
	if err != nil {
		return nil, err
	}
	doc, err := calendar.Open(cmd.Context(), input, opts...)
	if err != nil {
		return nil, fmt.Errorf("open calendar: %w", err)
	}
	return doc, nil
}
