package testsys

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/testsys-project/testsys/pkg/client"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Initialize a test's status",
	Long: "Set the named test's status to its default value, ready for the agent to report against. " +
		"Fails if the status was already initialized, so in-flight results are never reset.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		name := cmdArgs[0]

		tc, closer, err := getTestClient(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		if _, err := tc.InitializeStatus(cmd.Context(), name); err != nil {
			var already client.ErrStatusAlreadyInitialized
			if errors.As(err, &already) {
				cmd.PrintErrf("status of %q was already initialized\n", name)
				return nil
			}
			return err
		}

		cmd.Printf("initialized status of %q\n", name)
		return nil
	},
}
