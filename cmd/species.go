package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/printer"
	"github.com/sw33tLie/biodex/pkg/query"
)

var speciesCmd = &cobra.Command{
	Use:   "species",
	Short: "Search and inspect species",
}

var speciesSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search species by name, status, type, site and endemism",
	Long: `Search species. Results are ordered CR, EN, VU, NT, LC, DD. Within a status
they keep their earlier order: best text match first when a query is given,
otherwise flora before fauna in dataset order. The query is fuzzy and
tolerates small typos.

Output flags (-o): i id, c common name, s scientific name, t status code,
l status label, y type, h habitats, u site ids, e endemic.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := query.Options{}
		if len(args) == 1 {
			opts.Query = args[0]
		}
		opts.Status, _ = cmd.Flags().GetString("status")
		opts.Type, _ = cmd.Flags().GetString("type")
		opts.Site, _ = cmd.Flags().GetString("site")
		opts.EndemicOnly, _ = cmd.Flags().GetBool("endemic")
		outputFlags, _ := cmd.Flags().GetString("output")
		delimiter, _ := cmd.Flags().GetString("delimiter")

		if err := opts.Validate(); err != nil {
			return err
		}
		if err := printer.ValidateFlags(outputFlags); err != nil {
			return err
		}

		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		results := query.New(viper.GetFloat64("search.threshold")).Search(c.UnifiedSpecies(), opts)
		utils.Log.Debugf("%d species matched", len(results))
		return printer.PrintSpecies(os.Stdout, results, outputFlags, delimiter)
	},
}

var speciesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one species and the sites it occurs at",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		rec, ok := c.FindSpeciesByID(args[0])
		if !ok {
			return fmt.Errorf("species %q not found", args[0])
		}
		printSpeciesDetail(rec, c.SitesForSpecies(rec.RecordID()))
		return nil
	},
}

func printSpeciesDetail(rec catalog.Record, sites []catalog.Site) {
	u := catalog.Unify(rec)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", u.ID)
	fmt.Fprintf(w, "Name\t%s\n", u.CommonName)
	if u.ScientificName != "" {
		fmt.Fprintf(w, "Scientific name\t%s\n", u.ScientificName)
	}
	fmt.Fprintf(w, "Type\t%s\n", u.Type)
	fmt.Fprintf(w, "Status\t%s (%s)\n", u.Status.Label(), u.Status)
	if u.IsEndemic() {
		fmt.Fprintf(w, "Endemic\tyes\n")
	}
	if len(u.Habitats) > 0 {
		fmt.Fprintf(w, "Habitats\t%s\n", strings.Join(u.Habitats, ", "))
	}
	if sr, ok := rec.(catalog.SpeciesRecord); ok && len(sr.Threats) > 0 {
		fmt.Fprintf(w, "Threats\t%s\n", strings.Join(sr.Threats, ", "))
	}
	for i, s := range sites {
		label := ""
		if i == 0 {
			label = "Sites"
		}
		fmt.Fprintf(w, "%s\t%s (%s)\n", label, s.Name, s.ID)
	}
	w.Flush()
	if u.Description != "" {
		fmt.Println()
		fmt.Println(u.Description)
	}
}

func init() {
	rootCmd.AddCommand(speciesCmd)
	speciesCmd.AddCommand(speciesSearchCmd)
	speciesCmd.AddCommand(speciesShowCmd)

	speciesSearchCmd.Flags().String("status", "", "Filter by conservation status (CR, EN, VU, NT, LC, DD or all)")
	speciesSearchCmd.Flags().StringP("type", "t", "", "Filter by type (flora, fauna or all)")
	speciesSearchCmd.Flags().String("site", "", "Only species recorded at this site id")
	speciesSearchCmd.Flags().Bool("endemic", false, "Only endemic species")
	speciesSearchCmd.Flags().StringP("output", "o", printer.DefaultFlags, "Output flags. Supported: i (id), c (common name), s (scientific name), t (status), l (status label), y (type), h (habitats), u (site ids), e (endemic)")
	speciesSearchCmd.Flags().StringP("delimiter", "d", " ", "Delimiter character to use for output")
}
