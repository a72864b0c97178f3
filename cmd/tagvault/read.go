package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	readYAML bool
)

var readCmd = &cobra.Command{
	Use:   "read [image]",
	Short: "Read the document stored on a tag image",
	Long:  `Read the document of the active bank. Outputs indented JSON by default, or YAML with --yaml.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		v, _, tag, err := openImage(args[0])
		if err != nil {
			fatal("Error opening image", err)
		}

		doc, err := v.Read(cmd.Context(), tag.UID(), true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading document: %v\n", err)
			os.Exit(1)
		}

		if readYAML {
			out, err := yaml.Marshal(map[string]any(doc))
			if err != nil {
				fatal("Error encoding YAML", err)
			}
			fmt.Print(string(out))
			return
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(doc); err != nil {
			fatal("Error encoding JSON", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().BoolVar(&readYAML, "yaml", false, "Output in YAML format")
}
