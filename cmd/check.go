package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/dataset"
	"github.com/sw33tLie/biodex/pkg/polling"
)

var errCheckFailed = errors.New("dataset check failed")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the dataset and report dangling site and species references",
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")

		ds, err := polling.Fetch(cmd.Context(), nil, sources(), 0)
		if err != nil {
			return err
		}

		problems := dataset.Problems(dataset.Validate(ds))
		for _, p := range problems {
			fmt.Printf("[INVALID] %v\n", p)
		}

		refs := catalog.New(ds).DanglingReferences()
		for _, r := range refs {
			fmt.Printf("[DANGLING] %s %q references unknown id %q\n", r.FromKind, r.FromID, r.TargetID)
		}

		utils.Log.Infof("%s: %d sites, %d flora, %d fauna, %d problems, %d dangling references",
			polling.SourceName(sources()), len(ds.Sites), len(ds.Flora), len(ds.Fauna), len(problems), len(refs))

		if len(problems) > 0 || (strict && len(refs) > 0) {
			return errCheckFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("strict", false, "Also fail on dangling references")
}
