package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskboard/api/internal/handle"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [name]",
	Short: "Print the JSON schema of a request or response body",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, n := range handle.SchemaNames() {
				fmt.Println(n)
			}
			return nil
		}
		s, ok := handle.SchemaFor(args[0])
		if !ok {
			return fmt.Errorf("unknown schema %q; run 'taskboard schema' to list them", args[0])
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	},
}
