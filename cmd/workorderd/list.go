package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/storage/sqlite"
)

func listCmd(load loader) *cobra.Command {
	var channel string
	var outbox bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored work orders or published messages",
		Long: `List stored work orders. With --outbox, list the messages the outbox
transport has published instead, optionally only those for --channel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := load(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			if outbox || channel != "" {
				if app.SQLite == nil {
					return fmt.Errorf("outbox listing needs the sqlite store")
				}
				msgs, err := app.SQLite.Outbox().Messages(ctx, channel)
				if err != nil {
					return fmt.Errorf("failed to list messages: %w", err)
				}
				writeMessages(out, msgs)
				return nil
			}

			result, err := app.Service.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list work orders: %w", err)
			}
			writeWorkOrders(out, result.Items)
			return nil
		},
	}
	cmd.Flags().BoolVar(&outbox, "outbox", false, "list outbox messages")
	cmd.Flags().StringVar(&channel, "channel", "", "only list outbox messages for this channel")
	return cmd
}

var statusColors = map[domain.Status]*color.Color{
	domain.StatusReceived:   color.New(color.FgCyan),
	domain.StatusInProgress: color.New(color.FgYellow),
	domain.StatusCompleted:  color.New(color.FgGreen),
	domain.StatusCanceled:   color.New(color.FgRed),
}

func colorStatus(s domain.Status) string {
	padded := fmt.Sprintf("%-12s", s)
	if c, ok := statusColors[s]; ok {
		return c.Sprint(padded)
	}
	return padded
}

func writeWorkOrders(w io.Writer, orders []*domain.WorkOrder) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No work orders found")
		return
	}

	fmt.Fprintf(w, "\n%-36s %-12s %-20s %s\n", "ID", "STATUS", "DELIVERY", "DESCRIPTION")
	fmt.Fprintln(w, strings.Repeat("─", 90))
	for _, wo := range orders {
		desc := wo.Description
		if wo.CancellationReason != nil {
			desc += " (" + *wo.CancellationReason + ")"
		}
		fmt.Fprintf(w, "%-36s %s %-20s %s\n", wo.ID, colorStatus(wo.Status), wo.DeliveryDate, desc)
	}
	fmt.Fprintf(w, "\n%d work order(s)\n", len(orders))
}

func writeMessages(w io.Writer, msgs []*sqlite.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages found")
		return
	}

	fmt.Fprintf(w, "\n%-6s %-20s %-36s %-12s %s\n", "ID", "CHANNEL", "DEDUP KEY", "GROUP", "PUBLISHED")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, m := range msgs {
		fmt.Fprintf(w, "%-6d %-20s %-36s %s %s\n", m.ID, m.Envelope.Channel, m.Envelope.DedupKey,
			colorStatus(domain.Status(m.Envelope.GroupKey)), m.PublishedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(w)
}
