package testsys

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var storePath string

func init() { //nolint:gochecknoinits // Using init with Cobra Command is idiomatic
	RootCmd.AddCommand(createCmd)
	RootCmd.AddCommand(describeCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(keepRunningCmd)
	RootCmd.AddCommand(deleteCmd)

	RootCmd.PersistentFlags().StringVar(
		&storePath, "store-path", "",
		`Path to the database holding test records. Defaults to $TESTSYS_STORE_PATH or testsys.db.`,
	)

	viper.SetEnvPrefix("TESTSYS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetDefault("store-path", "testsys.db")
	_ = viper.BindEnv("store-path")
}

var RootCmd = &cobra.Command{
	Use:   "testsys",
	Short: "Synchronize the status of distributed test runs",
	Long:  `Create test records and follow their status as controllers and agents report progress.`,
}

func Execute(version string) {
	RootCmd.Version = version

	setVersion()

	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setVersion() {
	template := fmt.Sprintf("TestSys Version: %s\n", RootCmd.Version)
	RootCmd.SetVersionTemplate(template)
}
