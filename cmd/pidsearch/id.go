// Identifier commands for the pidsearch CLI.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pidsearch/internal/scheme"
	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Manage identifier records",
}

func init() {
	idCmd.AddCommand(idAddCmd)
	idCmd.AddCommand(idGetCmd)
	idCmd.AddCommand(idDeleteCmd)
	idCmd.AddCommand(idListCmd)
}

var (
	idAddOwner    string
	idAddCoOwners string
	idAddStatus   string
	idAddTitle    string
	idAddCreator  string
)

var idAddCmd = &cobra.Command{
	Use:   "add <identifier>",
	Short: "Create or update an identifier record",
	Long: `Add upserts an identifier record. The identifier is normalized before
storage; the create time of an existing record is preserved.

Example:
  pidsearch id add ark:/99999/fk4x1y2z --owner ark:/99166/p92z12p14
  pidsearch id add doi:10.1234/ABC --owner ark:/99166/p9x --status reserved`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalized, err := scheme.Normalize(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid identifier %q: %s\n", args[0], err)
			os.Exit(exitUserError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "id add:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableIdentifiers)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		now := time.Now().Unix()
		rec := &types.Identifier{
			Identifier:    normalized,
			Owner:         idAddOwner,
			Status:        idAddStatus,
			CreateTime:    now,
			UpdateTime:    now,
			MappedTitle:   idAddTitle,
			MappedCreator: idAddCreator,
		}
		if idAddCoOwners != "" {
			for _, co := range strings.Split(idAddCoOwners, ",") {
				if co = strings.TrimSpace(co); co != "" {
					rec.CoOwners = append(rec.CoOwners, co)
				}
			}
		}

		// Preserve the create time of an existing record.
		if entity, err := table.Get(normalized); err == nil {
			if existing, ok := entity.(*types.Identifier); ok {
				rec.CreateTime = existing.CreateTime
			}
		} else if !isEntityNotFound(err) {
			fmt.Fprintln(os.Stderr, "get identifier:", err)
			os.Exit(exitSysError)
		}

		storedID, err := table.Set("", rec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "store identifier: %s\n", err)
			os.Exit(exitUserError)
		}

		if flagJSON {
			entity, err := table.Get(storedID)
			if err != nil {
				fmt.Fprintln(os.Stderr, "get stored identifier:", err)
				os.Exit(exitSysError)
			}
			if err := printJSON(entity); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
		} else {
			fmt.Printf("Stored %s\n", storedID)
		}

		return nil
	},
}

var idGetCmd = &cobra.Command{
	Use:   "get <identifier>",
	Short: "Display an identifier record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalized, err := scheme.Normalize(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid identifier %q: %s\n", args[0], err)
			os.Exit(exitUserError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "id get:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableIdentifiers)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		entity, err := table.Get(normalized)
		if err != nil {
			if isEntityNotFound(err) {
				fmt.Fprintf(os.Stderr, "identifier %q not found\n", normalized)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "get identifier:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			if err := printJSON(entity); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
			return nil
		}

		rec, ok := entity.(*types.Identifier)
		if !ok {
			fmt.Fprintln(os.Stderr, "id get: entity is not an identifier")
			os.Exit(exitSysError)
		}

		fmt.Printf("Identifier: %s\n", rec.Identifier)
		fmt.Printf("Owner:      %s\n", rec.Owner)
		if len(rec.CoOwners) > 0 {
			fmt.Printf("Co-owners:  %s\n", strings.Join(rec.CoOwners, ", "))
		}
		fmt.Printf("Status:     %s\n", rec.Status)
		fmt.Printf("Created:    %s\n", formatEpoch(rec.CreateTime))
		fmt.Printf("Updated:    %s\n", formatEpoch(rec.UpdateTime))
		if rec.MappedTitle != "" {
			fmt.Printf("Title:      %s\n", rec.MappedTitle)
		}
		if rec.MappedCreator != "" {
			fmt.Printf("Creator:    %s\n", rec.MappedCreator)
		}
		return nil
	},
}

var idDeleteCmd = &cobra.Command{
	Use:   "delete <identifier>",
	Short: "Delete an identifier record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalized, err := scheme.Normalize(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid identifier %q: %s\n", args[0], err)
			os.Exit(exitUserError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "id delete:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableIdentifiers)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		if err := table.Delete(normalized); err != nil {
			if isEntityNotFound(err) {
				fmt.Fprintf(os.Stderr, "identifier %q not found\n", normalized)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "delete identifier:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("Deleted %s\n", normalized)
		return nil
	},
}

var (
	idListOwner  string
	idListStatus string
	idListAfter  string
	idListLimit  int
)

var idListCmd = &cobra.Command{
	Use:   "list",
	Short: "List identifier records",
	Long: `List enumerates identifier records in lexical order, with optional
filters. Filters are ANDed together.

Example:
  pidsearch id list
  pidsearch id list --owner ark:/99166/p92z12p14
  pidsearch id list --status public --limit 50
  pidsearch id list --after doi:10.1234/A1 --limit 100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "id list:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableIdentifiers)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		filter := map[string]any{}
		if idListOwner != "" {
			filter["owner"] = idListOwner
		}
		if idListStatus != "" {
			filter["status"] = idListStatus
		}
		if idListAfter != "" {
			filter["after"] = idListAfter
		}
		if idListLimit > 0 {
			filter["limit"] = idListLimit
		}

		entities, err := table.Fetch(filter)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fetch identifiers:", err)
			os.Exit(exitUserError)
		}

		return printIdentifierList(entities)
	},
}

func init() {
	idAddCmd.Flags().StringVar(&idAddOwner, "owner", "", "owning agent identifier (required)")
	idAddCmd.Flags().StringVar(&idAddCoOwners, "co-owners", "", "comma-separated co-owner agent identifiers")
	idAddCmd.Flags().StringVar(&idAddStatus, "status", types.StatusPublic, "identifier status (reserved, public, unavailable)")
	idAddCmd.Flags().StringVar(&idAddTitle, "title", "", "mapped title from citation metadata")
	idAddCmd.Flags().StringVar(&idAddCreator, "creator", "", "mapped creator from citation metadata")
	_ = idAddCmd.MarkFlagRequired("owner")

	idListCmd.Flags().StringVar(&idListOwner, "owner", "", "filter by owner or co-owner")
	idListCmd.Flags().StringVar(&idListStatus, "status", "", "filter by status")
	idListCmd.Flags().StringVar(&idListAfter, "after", "", "return identifiers after this one")
	idListCmd.Flags().IntVar(&idListLimit, "limit", 0, "maximum number of records")
}

// printIdentifierList writes fetched identifier records to stdout, as JSON
// when --json is set and as one line per record otherwise.
func printIdentifierList(entities []any) error {
	if flagJSON {
		if err := printJSON(entities); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitSysError)
		}
		return nil
	}

	for _, entity := range entities {
		rec, ok := entity.(*types.Identifier)
		if !ok {
			continue
		}
		fmt.Printf("%s\t%s\t%s\n", rec.Identifier, rec.Owner, rec.Status)
	}
	return nil
}

// formatEpoch renders a Unix-seconds instant as a UTC timestamp.
func formatEpoch(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format("2006-01-02 15:04:05")
}
