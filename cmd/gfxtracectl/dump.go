package main

import (
	"fmt"
	"os"

	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/catalog"
	"github.com/spf13/cobra"
)

var dumpDropUnknown bool

var dumpCmd = &cobra.Command{
	Use:   "dump <capture-file>",
	Short: "Print the atoms of an encoded capture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		o, err := binary.Decode(catalog.MustBuild(), data,
			binary.WithLimits(cfg.Limits),
			binary.WithDropUnknown(dumpDropUnknown || cfg.Client.DropUnknown),
		)
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		list, ok := o.(*atom.List)
		if !ok {
			return fmt.Errorf("%s holds %T, not an atom list", args[0], o)
		}
		printAtoms(cmd, list)
		return nil
	},
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpDropUnknown, "drop-unknown", false, "skip atoms of unregistered types")
}

func printAtoms(cmd *cobra.Command, list *atom.List) {
	out := cmd.OutOrStdout()
	frame := 0
	for i, a := range list.Atoms {
		fmt.Fprintf(out, "%6d  %v\n", i, a)
		if obs := a.Observations(); obs != nil {
			for _, r := range obs.Reads {
				fmt.Fprintf(out, "        read  %v %v\n", r.Range, r.ID)
			}
			for _, w := range obs.Writes {
				fmt.Fprintf(out, "        write %v %v\n", w.Range, w.ID)
			}
		}
		if a.IsEndOfFrame() {
			fmt.Fprintf(out, "        -- end of frame %d --\n", frame)
			frame++
		}
	}
	fmt.Fprintf(out, "%d atoms, %d frames\n", list.Len(), len(list.FrameEnds()))
}
