package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/handler"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/phone"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/whatsapp"
)

func guestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guests",
		Short: "Manage the guest list",
	}
	cmd.AddCommand(guestsImportCmd(), guestsListCmd(), guestsInviteCmd())
	return cmd
}

func guestsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import guests from a CSV file with columns first_name,last_name,category,email,mobile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			guests, err := parseGuestsCSV(f, a.cfg.WhatsApp.CountryCode)
			if err != nil {
				return err
			}
			for i := range guests {
				if err := a.store.AddGuest(cmd.Context(), &guests[i]); err != nil {
					return fmt.Errorf("failed to import %s: %w", guests[i].FullName(), err)
				}
			}
			fmt.Printf("✅ Imported %d guests\n", len(guests))
			return nil
		},
	}
}

var guestColumns = []string{"first_name", "last_name", "category", "email", "mobile"}

// parseGuestsCSV reads a guest list with a header row. Columns may appear in
// any order; first_name and last_name are required on every row.
func parseGuestsCSV(r io.Reader, countryCode string) ([]models.Guest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv file is empty")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range guestColumns[:2] {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", col)
		}
	}

	var guests []models.Guest
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		field := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		g := models.Guest{
			FirstName: field("first_name"),
			LastName:  field("last_name"),
			Category:  field("category"),
			Email:     strings.ToLower(field("email")),
			Mobile:    phone.Normalize(field("mobile"), countryCode),
		}
		if g.FirstName == "" && g.LastName == "" && g.Email == "" && g.Mobile == "" {
			continue
		}
		if g.FirstName == "" || g.LastName == "" {
			return nil, fmt.Errorf("csv line %d: first_name and last_name are required", line)
		}
		guests = append(guests, g)
	}
	return guests, nil
}

func guestsListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List guests, optionally filtered by RSVP status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var guests []models.Guest
			if status != "" {
				s, ok := models.LookupStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				guests, err = a.store.GetGuestsByStatus(cmd.Context(), s)
			} else {
				guests, err = a.store.GetAllGuests(cmd.Context())
			}
			if err != nil {
				return err
			}
			printGuests(cmd.OutOrStdout(), guests)
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "RSVP status (attending, not_attending, maybe, pending, confirmed, declined)")
	return cmd
}

func printGuests(w io.Writer, guests []models.Guest) {
	if len(guests) == 0 {
		fmt.Fprintln(w, "No guests found.")
		return
	}
	fmt.Fprintf(w, "📋 Guests (%d total):\n", len(guests))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, g := range guests {
		fmt.Fprintf(w, "Name:   %s\n", g.FullName())
		if g.Category != "" {
			fmt.Fprintf(w, "Group:  %s\n", g.Category)
		}
		if g.Email != "" {
			fmt.Fprintf(w, "Email:  %s\n", g.Email)
		}
		if g.Mobile != "" {
			fmt.Fprintf(w, "Phone:  %s\n", g.Mobile)
		}
		fmt.Fprintf(w, "Status: %s\n", models.StatusDisplayText(g.RSVPStatus))
		if g.UserID != nil {
			fmt.Fprintln(w, "Signed up: yes")
		}
		fmt.Fprintln(w, strings.Repeat("-", 60))
	}
}

func guestsInviteCmd() *cobra.Command {
	var category, email string
	cmd := &cobra.Command{
		Use:   "invite <mobile> <first name> <last name>",
		Short: "Add a guest and send a WhatsApp invitation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.invite(cmd.Context(), &models.Guest{
				Mobile:    args[0],
				FirstName: args[1],
				LastName:  args[2],
				Category:  category,
				Email:     email,
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "guest group, e.g. family or friends")
	cmd.Flags().StringVar(&email, "email", "", "guest email, used to match the guest on signup")
	return cmd
}

func (a *app) invite(ctx context.Context, guest *models.Guest) error {
	wa, err := whatsapp.NewService(ctx, a.cfg.WhatsApp, logger.Component(a.log, "WhatsApp"))
	if err != nil {
		return fmt.Errorf("failed to initialize WhatsApp service: %w", err)
	}
	if err := wa.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to WhatsApp: %w", err)
	}
	defer wa.Disconnect()

	rsvps := rsvp.NewService(a.store, logger.Component(a.log, "RSVP"))
	h := handler.NewRSVPHandler(wa, a.store, rsvps, a.cfg.Wedding, a.cfg.WhatsApp.CountryCode, logger.Component(a.log, "RSVPHandler"))

	fmt.Printf("Sending invitation to %s (%s)...\n", guest.FullName(), guest.Mobile)
	if err := h.SendInvitation(ctx, guest); err != nil {
		return err
	}
	fmt.Println("✅ Invitation sent successfully!")
	return nil
}
