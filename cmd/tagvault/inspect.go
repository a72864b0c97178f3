package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tagvault/pkg/layout"
)

type inspection struct {
	UID        string         `yaml:"uid"`
	Ledger     []int          `yaml:"ledger"`
	ActiveBank int            `yaml:"active_bank"`
	NextBank   int            `yaml:"next_bank"`
	Degraded   bool           `yaml:"degraded,omitempty"`
	Codec      string         `yaml:"codec"`
	Document   map[string]any `yaml:"document,omitempty"`
	Error      string         `yaml:"error,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [image]",
	Short: "Show the ledger and document of a tag image",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		v, _, tag, err := openImage(args[0])
		if err != nil {
			fatal("Error opening image", err)
		}

		ledger, err := v.Ledger(cmd.Context(), tag.UID())
		if err != nil {
			fatal("Error reading ledger", err)
		}

		out := inspection{
			UID:        tag.UID().String(),
			Ledger:     ledger.Lengths(),
			ActiveBank: ledger.ActiveBank(),
			NextBank:   layout.NextBank(ledger.ActiveBank()),
			Degraded:   ledger.Degraded(),
			Codec:      v.Codec().Name(),
		}
		doc, err := v.Read(cmd.Context(), tag.UID(), true)
		if err != nil {
			out.Error = err.Error()
		} else {
			out.Document = doc
		}

		data, err := yaml.Marshal(out)
		if err != nil {
			fatal("Error encoding YAML", err)
		}
		fmt.Print(string(data))
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
