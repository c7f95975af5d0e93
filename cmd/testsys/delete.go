package testsys

import (
	"github.com/spf13/cobra"

	"github.com/testsys-project/testsys/pkg/models"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a test record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		name := cmdArgs[0]

		s, err := getStore()
		if err != nil {
			return err
		}
		defer s.Close(cmd.Context()) //nolint:errcheck

		if err := s.Delete(cmd.Context(), models.KindTest, name); err != nil {
			return err
		}

		cmd.Printf("deleted %q\n", name)
		return nil
	},
}
