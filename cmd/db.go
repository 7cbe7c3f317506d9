package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/polling"
	"github.com/sw33tLie/biodex/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the biodex database",
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the configured dataset into the database",
	Long: `Import the configured dataset into the database. The database ends up
mirroring the dataset: new records are added, changed ones updated and missing
ones removed, including species created with "biodex admin". Every difference
is written to the change log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dbPathFlag(cmd)
		if err != nil {
			return err
		}
		db, err := openDB(path, true)
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := polling.Poll(cmd.Context(), polling.Config{
			Sources:  sources(),
			DB:       db,
			LockPath: path,
			Log:      utils.Log,
		})
		if err != nil {
			return err
		}
		for _, c := range res.Changes {
			printChange(c)
		}
		st := res.Catalog.Stats()
		utils.Log.Infof("Imported %d sites and %d species into %s (%d changes)", st.Sites, st.Flora+st.Fauna, path, len(res.Changes))
		return nil
	},
}

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent dataset changes (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		path, err := dbPathFlag(cmd)
		if err != nil {
			return err
		}
		db, err := openDB(path, false)
		if err != nil {
			return err
		}
		defer db.Close()
		changes, err := db.ListRecentChanges(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, c := range changes {
			printChange(c)
		}
		return nil
	},
}

func printChange(c storage.Change) {
	ts := c.OccurredAt.Local().Format("2006-01-02 15:04:05")
	fmt.Printf("%s  %-7s  %-7s  %s  %s  origin=%s\n", ts, c.ChangeType, c.Kind, c.RecordID, c.Name, c.Origin)
}

// dbStatsCmd represents the db stats command
var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the sites and species in the database.",
	Long:  "Prints statistics about the sites and species in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dbPathFlag(cmd)
		if err != nil {
			return err
		}
		db, err := openDB(path, false)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		if stats.Sites == 0 && stats.Flora == 0 && stats.Fauna == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "SITE\tSPECIES\t")
		siteIDs := make([]string, 0, len(stats.SpeciesPerSite))
		for id := range stats.SpeciesPerSite {
			siteIDs = append(siteIDs, id)
		}
		sort.Strings(siteIDs)
		for _, id := range siteIDs {
			fmt.Fprintf(w, "%s\t%d\t\n", id, stats.SpeciesPerSite[id])
		}

		fmt.Fprintln(w, " \t \t")
		statuses := make([]string, 0, len(stats.ByStatus))
		for s := range stats.ByStatus {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		for _, s := range statuses {
			fmt.Fprintf(w, "%s\t%d\t\n", s, stats.ByStatus[s])
		}

		fmt.Fprintln(w, " \t \t")
		fmt.Fprintf(w, "SITES\t%d\t\n", stats.Sites)
		fmt.Fprintf(w, "FLORA\t%d\t\n", stats.Flora)
		fmt.Fprintf(w, "FAUNA\t%d\t\n", stats.Fauna)
		fmt.Fprintf(w, "CHANGES\t%d\t\n", stats.Changes)

		return w.Flush()
	},
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dbPathFlag(cmd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", path)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, path, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			utils.Log.Warnf("Couldn't retrieve schema: %v", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(importCmd)
	dbCmd.AddCommand(changesCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: db.path from the config, or ~/.config/biodex/biodex.sqlite)")
	changesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
}
