package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/smart-parking/internal/client"
)

type clientFlags struct {
	server   string
	timeout  time.Duration
	token    string
	username string
	password string
}

var cf clientFlags

// newClient builds an API client from the flags and logs in first when
// operator credentials were given.
func newClient(ctx context.Context) (*client.Client, error) {
	c, err := client.New(client.Config{BaseURL: cf.server, Timeout: cf.timeout, Token: cf.token})
	if err != nil {
		return nil, err
	}
	if cf.token == "" && cf.username != "" {
		if cf.password == "" {
			return nil, errors.New("--password (or PARKING_PASSWORD) is required with --username")
		}
		if _, _, err := c.Login(ctx, cf.username, cf.password); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	}
	return c, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the parking space summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		space, err := c.ParkingSpace(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), space)
	},
}

var inventory client.InitializeRequest

var initializeCmd = &cobra.Command{
	Use:   "initialize",
	Short: "Replace the slot inventory; with no counts the server's configured inventory is used",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		slots, err := c.Initialize(cmd.Context(), inventory)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "initialized %d slot(s)\n", len(slots))
		for _, s := range slots {
			fmt.Fprintf(out, "%s\t%s\t%s\n", s.Name, s.Type, s.ID)
		}
		return nil
	},
}

var (
	vehicleType string
	billingType string
)

var registerCmd = &cobra.Command{
	Use:   "register <plate>",
	Short: "Park a vehicle and open its session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		session, slot, err := c.Register(cmd.Context(), client.RegisterRequest{
			Number:      args[0],
			VehicleType: vehicleType,
			BillingType: billingType,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "parked %s at %s (session %s)\n", session.Vehicle.Number, slot.Name, session.ID)
		return nil
	},
}

var exitCmd = &cobra.Command{
	Use:   "exit <session-id>",
	Short: "Close a session and print the amount due",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		s, err := c.Exit(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var amount int64
		if s.Amount != nil {
			amount = *s.Amount
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s left %s, amount %d\n", s.Vehicle.Number, s.Slot.Name, amount)
		return nil
	},
}

var maintainOff bool

var maintainCmd = &cobra.Command{
	Use:   "maintain <slot-id>",
	Short: "Put a slot under maintenance, or return it to service with --off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		op := c.EnterMaintenance
		if maintainOff {
			op = c.ExitMaintenance
		}
		slot, err := op(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "slot %s is %s\n", slot.Name, slot.Status)
		return nil
	},
}

func addClientCommands(root *cobra.Command) {
	cmds := []*cobra.Command{statusCmd, initializeCmd, registerCmd, exitCmd, maintainCmd}
	for _, c := range cmds {
		f := c.Flags()
		f.StringVar(&cf.server, "server", envOr("PARKING_SERVER", "http://localhost:8000"), "parking API base URL")
		f.DurationVar(&cf.timeout, "timeout", 10*time.Second, "request timeout")
		f.StringVar(&cf.token, "token", os.Getenv("PARKING_TOKEN"), "operator access token")
		f.StringVar(&cf.username, "username", os.Getenv("PARKING_USERNAME"), "operator name to log in with")
		f.StringVar(&cf.password, "password", os.Getenv("PARKING_PASSWORD"), "operator password")
		root.AddCommand(c)
	}
	initializeCmd.Flags().IntVar(&inventory.Regular, "regular", 0, "regular slots")
	initializeCmd.Flags().IntVar(&inventory.Compact, "compact", 0, "compact slots")
	initializeCmd.Flags().IntVar(&inventory.EV, "ev", 0, "EV charging slots")
	initializeCmd.Flags().IntVar(&inventory.Handicap, "handicap", 0, "handicap-accessible slots")
	registerCmd.Flags().StringVar(&vehicleType, "type", "car", "vehicle type: car, bike, EV, Handicap-Accessible")
	registerCmd.Flags().StringVar(&billingType, "billing", "Hourly", "billing type: Hourly or Day-Pass")
	maintainCmd.Flags().BoolVar(&maintainOff, "off", false, "return the slot to service")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
