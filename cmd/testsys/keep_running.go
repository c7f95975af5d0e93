package testsys

import (
	"strconv"

	"github.com/spf13/cobra"
)

var keepRunningCmd = &cobra.Command{
	Use:   "keep-running [name] [true|false]",
	Short: "Set a test's keep-running flag",
	Long:  "Mark whether the agent should stay alive after the test finishes. Setting it to false marks the test ok to delete.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		name := cmdArgs[0]
		keepRunning, err := strconv.ParseBool(cmdArgs[1])
		if err != nil {
			return err
		}

		tc, closer, err := getTestClient(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		if _, err := tc.SendKeepRunning(cmd.Context(), name, keepRunning); err != nil {
			return err
		}

		cmd.Printf("set keep-running of %q to %t\n", name, keepRunning)
		return nil
	},
}
