package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var ownersCmd = &cobra.Command{
	Use:   "owners [path]",
	Short: "Show code owners, or the files one owner is responsible for",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOwners,
}

var flagOwner string

func init() {
	ownersCmd.Flags().StringVar(&flagOwner, "owner", "", "list files owned by this owner")
}

type CLIOwnership struct {
	Path   string   `json:"path"`
	Owners []string `json:"owners"`
}

func runOwners(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()

	if flagOwner != "" {
		owners, err := cb.CodeOwners()
		if err != nil {
			return err
		}
		for _, o := range owners {
			if o.Name() != flagOwner {
				continue
			}
			files, err := o.Files()
			if err != nil {
				return err
			}
			out := make([]string, 0, len(files))
			for _, f := range files {
				out = append(out, f.Path())
			}
			return output(out, func(w io.Writer) {
				for _, p := range out {
					fmt.Fprintln(w, p)
				}
			})
		}
		return fmt.Errorf("owner %s not in CODEOWNERS", flagOwner)
	}

	if len(args) == 1 {
		owners, err := cb.OwnersOf(args[0])
		if err != nil {
			return err
		}
		out := CLIOwnership{Path: args[0], Owners: owners}
		return output(out, func(w io.Writer) {
			fmt.Fprintf(w, "%s\t%s\n", out.Path, strings.Join(out.Owners, " "))
		})
	}

	var out []CLIOwnership
	for _, f := range cb.Files() {
		owners, err := cb.OwnersOf(f.Path())
		if err != nil {
			return err
		}
		if len(owners) > 0 {
			out = append(out, CLIOwnership{Path: f.Path(), Owners: owners})
		}
	}
	return output(out, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, o := range out {
			fmt.Fprintf(tw, "%s\t%s\n", o.Path, strings.Join(o.Owners, " "))
		}
		tw.Flush()
	})
}
