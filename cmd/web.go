package cmd

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/biodex/internal/server"
	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/admin"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/polling"
	"github.com/sw33tLie/biodex/pkg/storage"
)

// webCmd represents the web command
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the biodex JSON API",
	Long: `Start the JSON API: species search, species and site detail, statistics,
Prometheus metrics, and admin routes for curating species.

With --db the catalog is read from the database and admin writes go to it.
Otherwise admin writes stay in memory. With --live admin writes are visible
to search immediately; without it they only reach the admin listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		useDB, _ := cmd.Flags().GetBool("db")
		live, _ := cmd.Flags().GetBool("live")
		ttl, _ := cmd.Flags().GetDuration("cache-ttl")
		refresh, _ := cmd.Flags().GetDuration("refresh")

		var (
			c        *catalog.Catalog
			repo     admin.Repository
			baseline string
		)
		pollCfg := polling.Config{Sources: sources(), Interval: refresh, Log: utils.Log}
		if useDB {
			path, err := dbPathFlag(cmd)
			if err != nil {
				return err
			}
			db, err := openDB(path, false)
			if err != nil {
				return err
			}
			defer db.Close()
			ds, err := db.Dataset(ctx)
			if err != nil {
				return err
			}
			c, repo = catalog.New(ds), db
			pollCfg.DB, pollCfg.LockPath = db, path
			utils.Log.Infof("Serving %s", path)
		} else {
			res, err := polling.Poll(ctx, pollCfg)
			if err != nil {
				return err
			}
			c, repo = res.Catalog, admin.SeedFromCatalog(res.Catalog)
			baseline = res.Fingerprint
		}

		srv, err := server.New(c, repo, server.Config{
			Username:  viper.GetString("admin.username"),
			Password:  viper.GetString("admin.password"),
			Threshold: viper.GetFloat64("search.threshold"),
			CacheTTL:  ttl,
			Live:      live,
		})
		if err != nil {
			return err
		}

		var wg sync.WaitGroup
		if refresh > 0 {
			pollCfg.OnChange = func(c *catalog.Catalog, _ []storage.Change) { srv.Replace(c) }
			// With --db there is no baseline and the first tick imports.
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := polling.Run(ctx, pollCfg, baseline); err != nil {
					utils.Log.Errorf("Refresh stopped: %v", err)
				}
			}()
			utils.Log.Infof("Refreshing %s every %s", polling.SourceName(pollCfg.Sources), refresh)
		}
		err = srv.Start(ctx, viper.GetString("server.listen"))
		stop()
		wg.Wait()
		return err
	},
}

func init() {
	rootCmd.AddCommand(webCmd)

	webCmd.Flags().StringP("listen", "b", ":8080", "Address to bind the server to")
	webCmd.Flags().StringP("username", "u", "", "Username for admin basic auth (optional)")
	webCmd.Flags().StringP("password", "p", "", "Password for admin basic auth (optional)")
	webCmd.Flags().Bool("live", false, "Make admin edits searchable immediately")
	webCmd.Flags().Bool("db", false, "Serve from and write to the database instead of the dataset")
	webCmd.Flags().String("dbpath", "", "Path to SQLite DB file, used with --db")
	webCmd.Flags().Duration("refresh", 0, "Reload the dataset this often and serve it when it changed (0 disables)")
	webCmd.Flags().Duration("cache-ttl", 0, "How long search results are cached (0 keeps them until the catalog changes)")

	viper.BindPFlag("server.listen", webCmd.Flags().Lookup("listen"))
	viper.BindPFlag("admin.username", webCmd.Flags().Lookup("username"))
	viper.BindPFlag("admin.password", webCmd.Flags().Lookup("password"))
}
