package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-autoframe/internal/httpc"
	"github.com/teslashibe/go-autoframe/pkg/bridge"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var addr string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running sink's bridge counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = ctx.config.Bridge.Addr
			}

			var st bridge.ServerStats
			url := "http://" + addr + "/api/stats"
			if err := httpc.GetJSON(cmd.Context(), httpc.NewClient(0), url, &st); err != nil {
				return fmt.Errorf("query sink at %s: %w", addr, err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			fmt.Fprintln(out, renderKeyValues(out, "Sink "+st.Service, statusRows(st)))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Sink address (defaults to bridge.addr)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

func statusRows(st bridge.ServerStats) [][2]string {
	u := func(n uint64) string { return strconv.FormatUint(n, 10) }
	receiving := "no"
	if st.Consumer.Receiving {
		receiving = "yes"
	}
	return [][2]string{
		{"Producers", strconv.Itoa(st.Producers)},
		{"Receiving", receiving},
		{"Messages received", u(st.MessagesReceived)},
		{"Frames announced", u(st.FramesReceived)},
		{"Rejected", u(st.Rejected)},
		{"Queue length", strconv.Itoa(st.Consumer.QueueLen)},
		{"Enqueued", u(st.Consumer.Enqueued)},
		{"Evicted", u(st.Consumer.Evicted)},
		{"Emitted", u(st.Consumer.Emitted)},
		{"Keepalive frames", u(st.Consumer.Blanks)},
		{"Skipped ticks", u(st.Consumer.Skipped)},
		{"Import failures", u(st.Consumer.ImportFailures)},
		{"Emit errors", u(st.Consumer.EmitErrors)},
	}
}
