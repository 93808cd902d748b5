package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jimyag/hostplay/pkg/inventory"
	"github.com/jimyag/hostplay/pkg/playbook"
	"github.com/jimyag/hostplay/pkg/schema"
)

var documents = map[string]schema.Document{
	"playbook": playbook.Document,
	"hosts":    inventory.Document,
}

var schemaCmd = &cobra.Command{
	Use:       "schema <playbook|hosts>",
	Short:     "Print the JSON schema of a document type",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"playbook", "hosts"},
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, ok := documents[args[0]]
		if !ok {
			return fmt.Errorf("unknown document %q", args[0])
		}
		data, err := schema.Generate(doc)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	},
}
