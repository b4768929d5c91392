package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/wnxd/micrort/loader"
)

var symbolsDump bool

var symbolsCmd = &cobra.Command{
	Use:   "symbols <binary>",
	Short: "List the symbols of a binary as placed in the binary region.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		img, err := loader.Open(argv[0])
		if err != nil {
			return err
		}
		defer img.Close()
		info := loader.Place(argv[0], img, cfg.Session.Binary.Offset)
		if symbolsDump {
			spew.Fdump(cmd.OutOrStdout(), info)
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "NAME\tOFFSET\tSIZE\n")
		sizes := make(map[string]uint64)
		for _, sym := range img.Symbols() {
			sizes[sym.Name] = sym.Size
		}
		for _, name := range info.Symbols.Names() {
			fmt.Fprintf(w, "%s\t%s\t%#x\n", name, info.Symbols[name], sizes[name])
		}
		return w.Flush()
	},
}

func init() {
	symbolsCmd.Flags().BoolVar(&symbolsDump, "dump", false, "dump the full placement")
}
