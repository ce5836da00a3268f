package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/graft"
)

var (
	flagPriority    int
	flagDryRun      bool
	flagSync        bool
	flagIncludeDeps bool
	flagStrategy    string

	flagCreateBranch bool
	flagRemote       string
	flagGitMessage   string
)

var renameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename a symbol and every usage of it",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var moveCmd = &cobra.Command{
	Use:   "move <name> <target-file>",
	Short: "Move a symbol declaration into another file",
	Args:  cobra.ExactArgs(2),
	RunE:  runMove,
}

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Apply staged edits to the working tree",
	Args:  cobra.NoArgs,
	RunE:  runCommit,
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <ref>",
	Short: "Switch the working tree and rebuild the graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckout,
}

func init() {
	renameCmd.Flags().IntVar(&flagPriority, "priority", 0, "transaction priority")
	renameCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the diff instead of writing files")

	moveCmd.Flags().IntVar(&flagPriority, "priority", 0, "transaction priority")
	moveCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the diff instead of writing files")
	moveCmd.Flags().BoolVar(&flagIncludeDeps, "include-dependencies", false, "move same-file dependencies along")
	moveCmd.Flags().StringVar(&flagStrategy, "strategy", string(graft.MoveUpdateAllImports),
		"import handling: update-all-imports|add-back-edge")

	commitCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the diff instead of writing files")
	commitCmd.Flags().BoolVar(&flagSync, "sync", false, "rebuild the whole graph from disk after committing")
	commitCmd.Flags().StringVar(&flagGitMessage, "git-message", "", "also record the result as a git commit with this message")

	checkoutCmd.Flags().BoolVar(&flagCreateBranch, "create", false, "create the branch if it does not exist")
	checkoutCmd.Flags().StringVar(&flagRemote, "remote", "", "fetch the ref from this remote first")
}

func runRename(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()

	sym, err := cb.GetSymbol(args[0], false)
	if err != nil {
		return err
	}
	if err := sym.Rename(args[1], flagPriority); err != nil {
		return err
	}
	return flush(cmd, cb)
}

func runMove(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()

	sym, err := cb.GetSymbol(args[0], false)
	if err != nil {
		return err
	}
	strategy := graft.MoveStrategy(flagStrategy)
	if strategy != graft.MoveUpdateAllImports && strategy != graft.MoveAddBackEdge {
		return fmt.Errorf("unknown strategy %q", flagStrategy)
	}
	if err := sym.MoveToFile(cmd.Context(), args[1], flagIncludeDeps, strategy, flagPriority); err != nil {
		return err
	}
	return flush(cmd, cb)
}

func runCommit(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()
	return flush(cmd, cb)
}

// flush either prints the staged diff or commits it.
func flush(cmd *cobra.Command, cb *graft.Codebase) error {
	if flagDryRun {
		out, err := cb.Diff()
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, out)
		return nil
	}

	res, err := cb.Commit(cmd.Context(), flagSync)
	if err != nil {
		return err
	}
	out := make([]CLICommit, 0, len(res.Files))
	for _, fc := range res.Files {
		c := CLICommit{
			File:    fc.Path,
			Applied: len(fc.Applied),
			Skipped: len(fc.Deduped) + len(fc.Conflicted),
		}
		if fc.Err != nil {
			c.Error = fc.Err.Error()
		}
		out = append(out, c)
	}
	if err := output(out, func(w io.Writer) { formatCommitsText(w, out) }); err != nil {
		return err
	}
	if failed := res.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d file(s) failed to commit", len(failed))
	}
	if flagGitMessage != "" {
		return cb.CommitToGit(cmd.Context(), flagGitMessage)
	}
	return nil
}

func runCheckout(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()

	res, err := cb.Checkout(cmd.Context(), args[0], flagCreateBranch, flagRemote)
	if err != nil {
		return err
	}
	switch res.Status {
	case graft.CheckoutSuccess:
		fmt.Fprintf(os.Stderr, "Checked out %s\n", res.Ref)
		return nil
	case graft.CheckoutConflict:
		return fmt.Errorf("checkout %s: working tree conflicts: %s", res.Ref, res.Detail)
	default:
		return fmt.Errorf("checkout %s: ref not found", res.Ref)
	}
}
