package testsys

import (
	"os"

	"github.com/google/uuid"
	"github.com/imdario/mergo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/testsys-project/testsys/pkg/models"
)

var createOptions = struct {
	name        string
	specFile    string
	agentName   string
	agentImage  string
	keepRunning bool
}{}

func init() { //nolint:gochecknoinits // Using init with Cobra Command is idiomatic
	createCmd.Flags().StringVar(&createOptions.name, "name", "",
		"Name of the test. A random name is generated when omitted.")
	createCmd.Flags().StringVarP(&createOptions.specFile, "file", "f", "",
		"Path to a yaml file holding the test spec. Flags override fields from the file.")
	createCmd.Flags().StringVar(&createOptions.agentName, "agent-name", "",
		"Name of the agent that will run the test.")
	createCmd.Flags().StringVar(&createOptions.agentImage, "image", "",
		"Container image URI of the agent.")
	createCmd.Flags().BoolVar(&createOptions.keepRunning, "keep-running", false,
		"Keep the agent alive after the test finishes.")
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a test record",
	Long:  "Create a test record in the store. Agents and controllers report status against it once it exists.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		spec := models.TestSpec{}
		if createOptions.specFile != "" {
			data, err := os.ReadFile(createOptions.specFile)
			if err != nil {
				return err
			}
			if err := yaml.Unmarshal(data, &spec); err != nil {
				return err
			}
		}

		flagSpec := models.TestSpec{
			Agent: models.Agent{
				Name:  createOptions.agentName,
				Image: createOptions.agentImage,
			},
		}
		if err := mergo.Merge(&spec, flagSpec, mergo.WithOverride); err != nil {
			return err
		}
		// mergo treats false as empty, so the flag is applied explicitly
		if cmd.Flags().Changed("keep-running") {
			spec.Agent.KeepRunning = createOptions.keepRunning
		}

		name := createOptions.name
		if name == "" {
			name = "test-" + uuid.NewString()[:8]
		}

		test := &models.Test{Name: name, Spec: spec}
		test.Normalize()
		if err := test.Validate(); err != nil {
			return err
		}

		tc, closer, err := getTestClient(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		created, err := tc.Create(cmd.Context(), test)
		if err != nil {
			return err
		}

		cmd.Println(created.Name)
		return nil
	},
}
