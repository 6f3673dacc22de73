package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
)

func rsvpsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rsvps",
		Short: "Inspect RSVPs",
	}
	cmd.AddCommand(rsvpsSummaryCmd())
	return cmd
}

func rsvpsSummaryCmd() *cobra.Command {
	var eventID string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show response counts for an event (main event by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			svc := rsvp.NewService(a.store, logger.Component(a.log, "RSVP"))
			sum, err := svc.Summary(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}
	cmd.Flags().StringVar(&eventID, "event", "", "event id")
	return cmd
}

func printSummary(w io.Writer, sum *models.RSVPSummary) {
	fmt.Fprintln(w, "📊 RSVP summary")
	for _, st := range models.AllStatuses {
		fmt.Fprintf(w, "  %-14s %d\n", models.StatusDisplayText(st)+":", sum.Counts[st])
	}
	fmt.Fprintf(w, "  %-14s %d\n", "Responses:", sum.Responses)
	fmt.Fprintf(w, "  %-14s %d\n", "Head count:", sum.HeadCount)
	fmt.Fprintf(w, "  %-14s %d\n", "Guest list:", sum.GuestsTotal)
}
