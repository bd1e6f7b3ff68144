package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	        __  __ _ _ _       _       __ _           _
	  __ _ / _|/ _(_) (_) __ _| |_ ___ / _(_)_ __   __| | ___ _ __
	 / _' | |_| |_| | | |/ _' | __/ _ \ |_| | '_ \ / _' |/ _ \ '__|
	| (_| |  _|  _| | | | (_| | ||  __/  _| | | | | (_| |  __/ |
	 \__,_|_| |_| |_|_|_|\__,_|\__\___|_| |_|_| |_|\__,_|\___|_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "affiliatefinder",
	Short: "Discover affiliate-partner candidates across the open web and social platforms.",
	Long: LOGO + `affiliatefinder searches the web, YouTube, Instagram and TikTok for content
creators and review sites worth recruiting as affiliates, filters out shops
and off-market noise, and enriches the survivors with traffic data.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.affiliatefinder.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".affiliatefinder")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.affiliatefinder.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("serp.key", "")
	viper.SetDefault("youtube.key", "")
	viper.SetDefault("scrapehub.url", "https://api.scrapehub.dev")
	viper.SetDefault("scrapehub.token", "")
	viper.SetDefault("traffic.key", "")
	viper.SetDefault("ledger.url", "")
	viper.SetDefault("ledger.token", "")
	viper.SetDefault("db.path", "affiliatefinder.sqlite")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
