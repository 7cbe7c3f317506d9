package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/biodex/pkg/catalog"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the sites and species in the dataset.",
	Long:  "Prints statistics about the sites and species in the dataset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		st := c.Stats()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "STATUS\tFLORA+FAUNA\t")
		for _, code := range catalog.SeverityOrder {
			fmt.Fprintf(w, "%s\t%d\t\n", code, st.ByStatus[code])
		}
		fmt.Fprintln(w, " \t \t")
		fmt.Fprintf(w, "FLORA\t%d\t\n", st.Flora)
		fmt.Fprintf(w, "FAUNA\t%d\t\n", st.Fauna)
		fmt.Fprintf(w, "ENDEMIC\t%d\t\n", st.Endemic)
		fmt.Fprintln(w, " \t \t")

		types := make([]string, 0, len(st.BySiteType))
		for t := range st.BySiteType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(w, "%s SITES\t%d\t\n", t, st.BySiteType[t])
		}
		fmt.Fprintf(w, "TOTAL SITES\t%d\t\n", st.Sites)

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
