package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-scope/internal/scope/services/rules"
)

// NewSegmentsCmd creates the segments command.
func NewSegmentsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "segments <url>...",
		Short: "Show the path segments of URLs and the trap guard's verdict",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				segs := rules.SplitSegments(raw)
				d := rules.EvaluateSegments(segs, st.cfg.SegmentsMaxIdentical, st.cfg.SegmentsMaxConsecutive)
				b, err := json.Marshal(segs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", d, raw, b)
			}
			return nil
		},
	}
}
