// Package command provides the root and sub-commands of parkingd.
//
//	parkingd                       # start the HTTP server (same as serve)
//	parkingd serve
//	parkingd consume               # append session events to the log file
//	parkingd hash-password <pw>    # print a bcrypt hash for OPERATOR_PASSWORD_HASH
//	parkingd status   [--server URL]
//	parkingd initialize [--regular N --compact N --ev N --handicap N]
//	parkingd register <plate> --type car --billing Hourly
//	parkingd exit     <session-id>
//	parkingd maintain <slot-id> [--off]
package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parkingd",
	Short: "Parking slot allocation and occupancy service",
	Long: `parkingd allocates parking slots to arriving vehicles, tracks
their sessions and bills them on exit.  Without a sub-command it
starts the HTTP server.  The client sub-commands talk to a running
server through its HTTP API.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs rootCmd and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, consumeCmd, hashPasswordCmd)
	addClientCommands(rootCmd)
}
