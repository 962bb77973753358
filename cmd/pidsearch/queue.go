// Update-queue commands for the pidsearch CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pidsearch/internal/sync"
	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the update queue",
}

func init() {
	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueDrainCmd)
}

var (
	queueAddOp   string
	queueAddMeta []string
)

var queueAddCmd = &cobra.Command{
	Use:   "add <identifier>",
	Short: "Enqueue a pending change",
	Long: `Add appends an entry to the update queue. Metadata elements are given
in compressed form as repeated --meta flags.

Example:
  pidsearch queue add ark:/99999/fk4x1 --op create --meta _o=ark:/99166/p9x --meta _c=1700000000
  pidsearch queue add ark:/99999/fk4x1 --op delete`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry := &types.QueueEntry{
			Identifier: args[0],
			Operation:  queueAddOp,
		}
		if len(queueAddMeta) > 0 {
			entry.Metadata = make(map[string]string, len(queueAddMeta))
			for _, pair := range queueAddMeta {
				key, value, found := strings.Cut(pair, "=")
				if !found {
					fmt.Fprintf(os.Stderr, "invalid --meta %q (expected key=value)\n", pair)
					os.Exit(exitUserError)
				}
				entry.Metadata[key] = value
			}
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "queue add:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableQueue)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		seq, err := table.Set("", entry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "enqueue: %s\n", err)
			os.Exit(exitUserError)
		}

		if flagJSON {
			if err := printJSON(entry); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
		} else {
			fmt.Printf("Enqueued %s as seq %s\n", args[0], seq)
		}
		return nil
	},
}

var (
	queueListIdentifier string
	queueListLimit      int
)

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending queue entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "queue list:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableQueue)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		filter := map[string]any{}
		if queueListIdentifier != "" {
			filter["identifier"] = queueListIdentifier
		}
		if queueListLimit > 0 {
			filter["limit"] = queueListLimit
		}

		entities, err := table.Fetch(filter)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fetch queue:", err)
			os.Exit(exitUserError)
		}

		if flagJSON {
			if err := printJSON(entities); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
			return nil
		}

		for _, entity := range entities {
			entry, ok := entity.(*types.QueueEntry)
			if !ok {
				continue
			}
			fmt.Printf("%d\t%s\t%s\t%s\n", entry.Seq, entry.Operation, entry.Identifier, formatEpoch(entry.EnqueueTime))
		}
		return nil
	},
}

var queueDrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Apply pending queue entries until the queue is empty",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "queue drain:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		cfg, err := buildConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, "queue drain:", err)
			os.Exit(exitSysError)
		}

		worker, err := sync.NewWorker(backend, cfg, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "queue drain:", err)
			os.Exit(exitSysError)
		}

		processed, err := worker.Drain(context.Background())
		if err != nil {
			fmt.Fprintln(os.Stderr, "queue drain:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("Drained %d entries\n", processed)
		return nil
	},
}

func init() {
	queueAddCmd.Flags().StringVar(&queueAddOp, "op", types.OperationUpdate, "queue operation (create, update, delete)")
	queueAddCmd.Flags().StringArrayVar(&queueAddMeta, "meta", nil, "metadata element as key=value (repeatable)")

	queueListCmd.Flags().StringVar(&queueListIdentifier, "identifier", "", "filter by identifier")
	queueListCmd.Flags().IntVar(&queueListLimit, "limit", 0, "maximum number of entries")
}
