package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/admin"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/storage"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Curate species stored in the database",
	Long: `Curate species stored in the database. Changes are recorded in the change
log with origin "admin". A later "biodex db import" makes the database mirror
the dataset again and drops species that only exist here.`,
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored species in the shape the editor works with",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdminDB(cmd, false, func(ctx context.Context, db *storage.DB, siteIDs []string) error {
			list, err := listStored(ctx, db, adminListOptions(cmd))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tSTATUS\tNAME\tSITES")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Category, s.Status, s.CommonName, strings.Join(s.SiteIDs, ","))
			}
			return w.Flush()
		})
	},
}

func adminListOptions(cmd *cobra.Command) storage.ListOptions {
	var opts storage.ListOptions
	opts.Category, _ = cmd.Flags().GetString("category")
	opts.Status, _ = cmd.Flags().GetString("status")
	opts.NameFilter, _ = cmd.Flags().GetString("name")
	return opts
}

// listStored returns the stored species matching opts, flattened for the
// editor.
func listStored(ctx context.Context, db *storage.DB, opts storage.ListOptions) ([]catalog.Species, error) {
	records, err := db.ListSpecies(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Species, 0, len(records))
	for _, r := range records {
		out = append(out, catalog.AsSpecies(r))
	}
	return out, nil
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a species",
	Long: `Create a species. Without --id the id is derived from --name, or generated
when there is no name either. Creating an id that already exists fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdminDB(cmd, true, func(ctx context.Context, db *storage.DB, siteIDs []string) error {
			ed := admin.NewEditor(db, siteIDs, nil)
			ed.BeginCreate()
			if err := applyEditFlags(cmd, ed); err != nil {
				return err
			}
			if id, _ := cmd.Flags().GetString("id"); id == "" {
				if name, _ := cmd.Flags().GetString("name"); name != "" {
					if err := ed.Set(admin.FieldID, utils.Slugify(name)); err != nil {
						return err
					}
				}
			}
			saved, err := ed.Save(ctx)
			if err != nil {
				return err
			}
			utils.Log.Infof("Created %s (%s)", saved.ID, saved.CommonName)
			return nil
		})
	},
}

var adminEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a stored species. Only the flags given are changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdminDB(cmd, true, func(ctx context.Context, db *storage.DB, siteIDs []string) error {
			ed := admin.NewEditor(db, siteIDs, nil)
			if err := ed.BeginEditByID(ctx, args[0]); err != nil {
				return err
			}
			if err := applyEditFlags(cmd, ed); err != nil {
				return err
			}
			saved, err := ed.Save(ctx)
			if err != nil {
				return err
			}
			utils.Log.Infof("Saved %s (%s)", saved.ID, saved.CommonName)
			return nil
		})
	},
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored species after confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		confirm := promptConfirm(os.Stdin, os.Stdout)
		if yes {
			confirm = admin.AlwaysConfirm
		}
		return withAdminDB(cmd, true, func(ctx context.Context, db *storage.DB, siteIDs []string) error {
			if _, ok, err := db.Get(ctx, args[0]); err != nil {
				return err
			} else if !ok {
				return fmt.Errorf("species %q: %w", args[0], admin.ErrNotFound)
			}
			removed, err := admin.NewEditor(db, siteIDs, confirm).Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if removed {
				utils.Log.Infof("Deleted %s", args[0])
			} else {
				utils.Log.Info("Nothing deleted")
			}
			return nil
		})
	},
}

// withAdminDB opens the database with the site ids the editor may reference.
// Writers hold the database lock.
func withAdminDB(cmd *cobra.Command, write bool, fn func(ctx context.Context, db *storage.DB, siteIDs []string) error) error {
	path, err := dbPathFlag(cmd)
	if err != nil {
		return err
	}
	run := func() error {
		db, err := openDB(path, false)
		if err != nil {
			return err
		}
		defer db.Close()

		ds, err := db.Dataset(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd.Context(), db, catalog.New(ds).SiteIDs())
	}
	if !write {
		return run()
	}
	return utils.WithDBLock(path, run)
}

var scalarFlags = []struct {
	flag  string
	field admin.Field
}{
	{"id", admin.FieldID},
	{"category", admin.FieldCategory},
	{"name", admin.FieldCommonName},
	{"scientific-name", admin.FieldScientificName},
	{"status", admin.FieldStatus},
	{"habitat", admin.FieldHabitat},
	{"blurb", admin.FieldBlurb},
	{"endemic", admin.FieldEndemic},
}

// applyEditFlags copies the flags the user set into the editor's draft.
func applyEditFlags(cmd *cobra.Command, ed *admin.Editor) error {
	flags := cmd.Flags()
	for _, sf := range scalarFlags {
		if flags.Lookup(sf.flag) == nil || !flags.Changed(sf.flag) {
			continue
		}
		v, _ := flags.GetString(sf.flag)
		if err := ed.Set(sf.field, v); err != nil {
			return err
		}
	}

	sites, _ := flags.GetStringSlice("toggle-site")
	for _, id := range sites {
		if err := ed.ToggleSite(id); err != nil {
			return err
		}
	}

	for _, l := range []struct {
		add, remove string
		field       admin.Field
	}{
		{"add-highlight", "remove-highlight", admin.FieldHighlights},
		{"add-image", "remove-image", admin.FieldImages},
	} {
		// Remove from the highest index down so earlier indexes stay valid.
		if flags.Lookup(l.remove) != nil {
			idx, _ := flags.GetIntSlice(l.remove)
			sort.Sort(sort.Reverse(sort.IntSlice(idx)))
			for _, i := range idx {
				if err := ed.RemoveItem(l.field, i); err != nil {
					return err
				}
			}
		}
		values, _ := flags.GetStringArray(l.add)
		for _, v := range values {
			if err := ed.AddItem(l.field, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// promptConfirm asks on out and reads a y/N answer from in.
func promptConfirm(in io.Reader, out io.Writer) admin.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(s catalog.Species) bool {
		fmt.Fprintf(out, "Delete %s (%s)? [y/N] ", s.ID, s.CommonName)
		answer, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func addEditFlags(c *cobra.Command, create bool) {
	if create {
		c.Flags().String("id", "", "Species id")
	}
	c.Flags().String("category", "", "flora or fauna")
	c.Flags().String("name", "", "Common name")
	c.Flags().String("scientific-name", "", "Scientific name")
	c.Flags().String("status", "", "Conservation status code or label (CR, EN, VU, NT, LC, DD)")
	c.Flags().String("habitat", "", "Habitat description")
	c.Flags().String("blurb", "", "Short description")
	c.Flags().String("endemic", "", "true, false or empty to unset")
	c.Flags().StringSlice("toggle-site", nil, "Site id to add, or remove if already present (repeatable)")
	c.Flags().StringArray("add-highlight", nil, "Highlight to append (repeatable)")
	c.Flags().StringArray("add-image", nil, "Image URL to append (repeatable)")
	if !create {
		c.Flags().IntSlice("remove-highlight", nil, "Index of a highlight to remove (repeatable)")
		c.Flags().IntSlice("remove-image", nil, "Index of an image to remove (repeatable)")
	}
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminListCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCmd.AddCommand(adminEditCmd)
	adminCmd.AddCommand(adminDeleteCmd)

	adminCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: db.path from the config, or ~/.config/biodex/biodex.sqlite)")
	addEditFlags(adminCreateCmd, true)
	addEditFlags(adminEditCmd, false)
	adminDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")
	adminListCmd.Flags().String("category", "", "Only this category (flora, fauna or all)")
	adminListCmd.Flags().String("status", "", "Only this conservation status (code or label)")
	adminListCmd.Flags().String("name", "", "Only species whose common or scientific name contains this text")
}
