package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crimemap/crimemap/internal/config"
)

var (
	cfgFile    string
	appVersion string // set in Execute, reported by serve, mcp and openapi
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crimemap",
		Short: "Browse, file and map crime incidents",
		Long: `crimemap serves a small REST API over incident codes, neighborhoods and
incidents, plus a map client that filters them, sizes neighborhood markers by
incident count and locates individual incidents by their block address.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./crimemap.yaml)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newIncidentsCmd())
	cmd.AddCommand(newLocateCmd())
	cmd.AddCommand(newDensityCmd())
	cmd.AddCommand(newGeocodeCmd())

	return cmd
}

func initConfig() {
	// .env values never override variables already set in the environment.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("crimemap")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.crimemap")
	}

	config.BindViper(viper.GetViper())
	viper.ReadInConfig() // Ignore error - config file is optional
}

// loadConfig returns the effective configuration: defaults, then the
// config file, then CRIMEMAP_* variables, then bound flags.
func loadConfig() (*config.YAMLConfig, error) {
	return config.FromViper(viper.GetViper())
}
