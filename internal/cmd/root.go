package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"parley/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Multi-AI debate and compare orchestration core",
	Long: `Parley orchestrates conversations between multiple AI models: sequential
debate sessions with turn scheduling and failure recovery, and side-by-side
compare sessions with synchronized dual-stream output.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/parley/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PARLEY")
	// Replace dots with underscores for nested keys in env vars
	// e.g., PARLEY_DEBATE_MAX_ROUNDS for debate.max_rounds
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	if err := viper.ReadInConfig(); err == nil {
		viper.WatchConfig()
	}
}
