package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/models"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage wedding events",
	}
	cmd.AddCommand(eventsAddCmd(), eventsListCmd())
	return cmd
}

func eventsAddCmd() *cobra.Command {
	var (
		venue  string
		starts string
		isMain bool
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an event; --main marks the event RSVPs default to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}
			startsAt, err := time.ParseInLocation("2006-01-02 15:04", starts, loc)
			if err != nil {
				return fmt.Errorf("invalid --starts %q, expected \"YYYY-MM-DD HH:MM\": %w", starts, err)
			}

			e := &models.WeddingEvent{Name: args[0], Venue: venue, StartsAt: startsAt, IsMainEvent: isMain}
			if err := a.store.CreateEvent(cmd.Context(), e); err != nil {
				return err
			}
			fmt.Printf("✅ Created event %s (%s)\n", e.Name, e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&venue, "venue", "", "venue name")
	cmd.Flags().StringVar(&starts, "starts", "", "start time, \"YYYY-MM-DD HH:MM\" in the wedding time zone")
	cmd.Flags().BoolVar(&isMain, "main", false, "mark as the main event")
	_ = cmd.MarkFlagRequired("starts")
	return cmd
}

func eventsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List events",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			events, err := a.store.ListEvents(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range events {
				marker := " "
				if e.IsMainEvent {
					marker = "*"
				}
				fmt.Printf("%s %s  %-24s %s  %s\n", marker, e.ID, e.Name, e.StartsAt.Format("2006-01-02 15:04"), e.Venue)
			}
			return nil
		},
	}
}
