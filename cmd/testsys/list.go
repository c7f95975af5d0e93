package testsys

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/testsys-project/testsys/pkg/models"
)

var listOptions = struct {
	hideHeader bool
}{}

func init() { //nolint:gochecknoinits // Using init with Cobra Command is idiomatic
	listCmd.Flags().BoolVar(&listOptions.hideHeader, "hide-header", false,
		"do not print the column headers.")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tests in the store",
	Long:  "List all test records with their reported state, keep-running flag and revision.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		defer s.Close(cmd.Context()) //nolint:errcheck

		records, err := s.List(cmd.Context(), models.KindTest)
		if err != nil {
			return err
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		if !listOptions.hideHeader {
			tw.AppendHeader(table.Row{"name", "state", "keep running", "revision"})
		}

		for _, record := range records {
			var test models.Test
			if err := json.Unmarshal(record.Object, &test); err != nil {
				log.Warn().Err(err).Str("Name", record.Name).Msg("skipping undecodable record")
				continue
			}
			tw.AppendRow(table.Row{
				test.Name,
				test.AgentStatus().TaskState.String(),
				strconv.FormatBool(test.Spec.Agent.KeepRunning),
				strconv.FormatUint(record.Revision, 10),
			})
		}

		tw.SetStyle(table.StyleColoredGreenWhiteOnBlack)
		tw.Render()
		return nil
	},
}
