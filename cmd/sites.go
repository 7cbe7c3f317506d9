package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/query"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List and inspect sites",
}

var sitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every site",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tSPECIES\tSUMMARY")
		for _, s := range c.Sites() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Type, len(c.SpeciesAtSite(s.ID)), utils.Truncate(s.Summary, 60))
		}
		return w.Flush()
	},
}

var sitesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one site with its species and highlights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		site, ok := c.FindSiteByID(args[0])
		if !ok {
			return fmt.Errorf("site %q not found", args[0])
		}
		species := query.Search(c.UnifiedSpecies(), query.Options{Site: site.ID})
		printSiteDetail(site, species, c.HighlightSpecies(site.ID))
		return nil
	},
}

func printSiteDetail(site catalog.Site, species, highlights []catalog.UnifiedSpecies) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", site.ID)
	fmt.Fprintf(w, "Name\t%s\n", site.Name)
	fmt.Fprintf(w, "Type\t%s\n", site.Type)
	fmt.Fprintf(w, "Location\t%.4f, %.4f\n", site.Lat, site.Lng)
	if site.AreaHectares != nil {
		fmt.Fprintf(w, "Area\t%.1f ha\n", *site.AreaHectares)
	}
	if site.Designation != "" {
		fmt.Fprintf(w, "Designation\t%s\n", site.Designation)
	}
	if site.Stewardship != "" {
		fmt.Fprintf(w, "Stewardship\t%s\n", site.Stewardship)
	}
	if len(site.Features) > 0 {
		fmt.Fprintf(w, "Features\t%s\n", strings.Join(site.Features, ", "))
	}
	w.Flush()

	if site.Description != "" {
		fmt.Println()
		fmt.Println(site.Description)
	}
	if len(highlights) > 0 {
		fmt.Println("\nHighlights:")
		for _, u := range highlights {
			fmt.Printf("  %s (%s)\n", u.CommonName, u.Status)
		}
	}
	fmt.Printf("\nSpecies (%d):\n", len(species))
	for _, u := range species {
		fmt.Printf("  %-4s %-8s %s\n", u.Status, u.Type, u.CommonName)
	}
}

func init() {
	rootCmd.AddCommand(sitesCmd)
	sitesCmd.AddCommand(sitesListCmd)
	sitesCmd.AddCommand(sitesShowCmd)
}
