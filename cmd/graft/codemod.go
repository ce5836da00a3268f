package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/graft/internal/codemod"
)

var codemodCmd = &cobra.Command{
	Use:   "codemod <script.risor>",
	Short: "Run a Risor codemod against the graph",
	Long:  "Executes a Risor script with the codebase exposed as host functions (get_symbol, usages, rename, move_to_file, commit, ...). The script decides what to stage and when to commit.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCodemod,
}

func runCodemod(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()

	rt := codemod.NewRuntime(cb)
	return rt.RunScript(cmd.Context(), args[0])
}
