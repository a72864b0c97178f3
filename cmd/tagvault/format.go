package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagvault/pkg/adapters/sim"
	"github.com/aretw0/tagvault/pkg/core"
)

var (
	formatUID   string
	formatForce bool
)

var formatCmd = &cobra.Command{
	Use:   "format [image]",
	Short: "Create a blank tag image, or blank the ledger of an existing one",
	Long: `Without an existing image, creates a factory-fresh tag image for --uid.
With --force on an existing image, commits an empty ledger: the tag reads as blank,
bank content is left in place.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

		_, err := os.Stat(path)
		switch {
		case err == nil && !formatForce:
			fatal("Error formatting tag", fmt.Errorf("%s already exists (use --force to blank its ledger)", path))
		case err == nil:
			v, _, tag, err := openImage(path)
			if err != nil {
				fatal("Error opening image", err)
			}
			if err := v.Format(cmd.Context(), tag.UID()); err != nil {
				fatal("Error formatting tag", err)
			}
			v.Release()
			if err := sim.SaveImage(path, tag); err != nil {
				fatal("Error saving image", err)
			}
			fmt.Printf("Ledger of %s cleared\n", tag.UID())
			return
		case !errors.Is(err, os.ErrNotExist):
			fatal("Error checking image", err)
		}

		uid, err := core.ParseUID(formatUID)
		if err != nil {
			fatal("Error parsing uid", err)
		}
		if err := sim.SaveImage(path, sim.NewBlankTag(uid)); err != nil {
			fatal("Error saving image", err)
		}
		fmt.Printf("Blank tag %s written to %s\n", uid, path)
	},
}

func init() {
	rootCmd.AddCommand(formatCmd)
	formatCmd.Flags().StringVar(&formatUID, "uid", "3de57a52", "UID of the new tag, in hex")
	formatCmd.Flags().BoolVar(&formatForce, "force", false, "Blank the ledger of an existing image")
}
