package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/polling"
	"github.com/sw33tLie/biodex/pkg/query"
	"github.com/sw33tLie/biodex/pkg/storage"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	 _     _           _           
	| |__ (_) ___   __| | _____  __
	| '_ \| |/ _ \ / _' |/ _ \ \/ /
	| |_) | | (_) | (_| |  __/>  < 
	|_.__/|_|\___/ \__,_|\___/_/\_\
							  
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "biodex",
	Short: "Explore the sites and species of a biodiversity dataset.",
	Long: LOGO + `biodex loads site and species records, normalizes flora and fauna into one
searchable shape, and lets you search, curate and serve them from your command line.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelString, _ := cmd.Flags().GetString("loglevel")
		return utils.SetLogLevel(levelString)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.biodex.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: trace, debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringSliceP("source", "s", nil, "Dataset to load: a JSON/YAML file or an http(s) URL, repeatable. Defaults to the embedded data")
	viper.BindPFlag("dataset.source", rootCmd.PersistentFlags().Lookup("source"))
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
		viper.SetConfigName(".biodex")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("biodex")
	viper.AutomaticEnv()

	// Set defaults before a fresh config file is written so it carries them.
	viper.SetDefault("dataset.source", []string{})
	viper.SetDefault("db.path", "")
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("admin.username", "")
	viper.SetDefault("admin.password", "")
	viper.SetDefault("search.threshold", query.DefaultThreshold)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".biodex.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Could not create config file: %s", err)
			}
		} else {
			utils.Log.Warnf("Could not read config file: %s", err)
		}
	}
}

func sources() []string {
	return viper.GetStringSlice("dataset.source")
}

// loadCatalog loads and validates the configured dataset.
func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	ds, err := polling.Load(ctx, nil, sources(), 0)
	if err != nil {
		return nil, err
	}
	return catalog.New(ds), nil
}

// dbPathFlag resolves --dbpath, falling back to db.path from the config.
func dbPathFlag(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("dbpath")
	if p == "" {
		p = viper.GetString("db.path")
	}
	return utils.GetAbsDBPath(p)
}

// openDB opens the database, creating its directory when create is set.
func openDB(path string, create bool) (*storage.DB, error) {
	if create {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("database file not found: %s (run `biodex db import` first)", path)
		}
		return nil, err
	}
	return storage.Open(path)
}
