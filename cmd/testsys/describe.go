package testsys

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/testsys-project/testsys/pkg/models"
)

type testDescription struct {
	Name   string             `yaml:"Name"`
	Spec   models.TestSpec    `yaml:"Spec"`
	Status *models.TestStatus `yaml:"Status,omitempty"`
}

var describeCmd = &cobra.Command{
	Use:   "describe [name]",
	Short: "Describe a test",
	Long:  "Full description of a test record, in yaml format. Use 'testsys list' to get a list of all names.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		name := cmdArgs[0]

		tc, closer, err := getTestClient(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		test, err := tc.Get(cmd.Context(), name)
		if err != nil {
			return err
		}

		desc := testDescription{
			Name:   test.Name,
			Spec:   test.Spec,
			Status: test.Status,
		}
		bytes, err := yaml.Marshal(desc)
		if err != nil {
			return err
		}
		cmd.Print(string(bytes))

		return nil
	},
}
