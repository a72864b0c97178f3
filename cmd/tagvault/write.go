package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagvault"
	"github.com/aretw0/tagvault/internal/platform"
	"github.com/aretw0/tagvault/pkg/adapters/sim"
)

var (
	writeDoc   string
	writeFile  string
	writeCodec string
)

var writeCmd = &cobra.Command{
	Use:   "write [image]",
	Short: "Write a document to a tag image",
	Long: `Write a document to the next bank of a tag image and commit it.
The document is JSON; comments and trailing commas are accepted.

Examples:
  tagvault write card.mfd --doc '{"version": 1, "counter": 0}'
  tagvault write card.mfd --file starter.jsonc --codec cbor`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

		var src string
		switch {
		case writeDoc != "" && writeFile != "":
			fatal("Error", fmt.Errorf("--doc and --file are mutually exclusive"))
		case writeFile != "":
			data, err := os.ReadFile(writeFile)
			if err != nil {
				fatal("Error reading document file", err)
			}
			src = string(data)
		case writeDoc != "":
			src = writeDoc
		default:
			fatal("Error", fmt.Errorf("one of --doc or --file is required"))
		}

		v, _, tag, err := openImage(path, func(cfg *tagvault.Config) {
			if writeCodec != "" {
				cfg.Codec = writeCodec
			}
		})
		if err != nil {
			fatal("Error opening image", err)
		}

		doc, err := platform.ParseDocument(src, false)
		if err != nil {
			fatal("Error parsing document", err)
		}

		if err := v.Write(cmd.Context(), tag.UID(), doc, true); err != nil {
			fatal("Error writing document", err)
		}
		ledger, err := v.Ledger(cmd.Context(), tag.UID())
		if err != nil {
			fatal("Error reading ledger", err)
		}
		v.Release()
		if err := sim.SaveImage(path, tag); err != nil {
			fatal("Error saving image", err)
		}

		fmt.Printf("Document written to bank %d (%d bytes, %s)\n", ledger.ActiveBank(), ledger.Length(ledger.ActiveBank()), v.Codec().Name())
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringVar(&writeDoc, "doc", "", "Document as JSON (comments allowed)")
	writeCmd.Flags().StringVarP(&writeFile, "file", "f", "", "Read the document from a file")
	writeCmd.Flags().StringVar(&writeCodec, "codec", "", "Bank encoding: json, cbor or yaml (defaults to the config)")
}
