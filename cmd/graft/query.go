package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/jward/graft"
)

var (
	flagKind  string
	flagDepth int
	flagTypes []string

	flagIncludeStrings  bool
	flagIncludeComments bool
	flagExact           bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [name]",
	Short: "List symbols in the graph, optionally filtered by name",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSymbols,
}

var usagesCmd = &cobra.Command{
	Use:   "usages <name>",
	Short: "List every site referencing a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsages,
}

var depsCmd = &cobra.Command{
	Use:   "deps <name>",
	Short: "List the symbols a declaration references",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeps,
}

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Regex search across the graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	symbolsCmd.Flags().StringVar(&flagKind, "kind", "", "filter by kind (function, class, ...)")
	depsCmd.Flags().IntVar(&flagDepth, "depth", 1, "transitive depth")
	depsCmd.Flags().StringSliceVar(&flagTypes, "usage-types", nil, "filter by reference context (call, attribute, ident)")
	searchCmd.Flags().BoolVar(&flagIncludeStrings, "strings", false, "include matches inside string literals")
	searchCmd.Flags().BoolVar(&flagIncludeComments, "comments", false, "include matches inside comments")
	searchCmd.Flags().BoolVar(&flagExact, "exact", false, "treat the pattern as a literal whole token")
}

func toCLISymbols(syms []*graft.Symbol) []CLISymbol {
	out := make([]CLISymbol, 0, len(syms))
	for _, s := range syms {
		out = append(out, CLISymbol{
			Name:     s.Name(),
			Kind:     s.Kind(),
			File:     s.FilePath(),
			Line:     s.Position().Line + 1,
			Exported: s.Exported(),
		})
	}
	return out
}

func runSymbols(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()

	var syms []*graft.Symbol
	if len(args) == 1 {
		syms, err = cb.GetSymbols(args[0])
	} else {
		syms, err = cb.Symbols()
	}
	if err != nil {
		return err
	}
	if flagKind != "" {
		var filtered []*graft.Symbol
		for _, s := range syms {
			if s.Kind() == flagKind {
				filtered = append(filtered, s)
			}
		}
		syms = filtered
	}

	out := toCLISymbols(syms)
	return output(out, func(w io.Writer) { formatSymbolsText(w, out) })
}

func runUsages(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()

	sym, err := cb.GetSymbol(args[0], false)
	if err != nil {
		return err
	}
	usages, err := sym.Usages()
	if err != nil {
		return err
	}

	out := make([]CLILocation, 0, len(usages))
	for _, u := range usages {
		line := 0
		if f, err := cb.GetFile(u.Path, true); err == nil && f != nil {
			line = f.PositionAt(u.Span.Start).Line + 1
		}
		out = append(out, CLILocation{File: u.Path, Line: line, Context: u.Context})
	}
	return output(out, func(w io.Writer) { formatLocationsText(w, out) })
}

func runDeps(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()

	sym, err := cb.GetSymbol(args[0], false)
	if err != nil {
		return err
	}
	deps, err := sym.Dependencies(flagTypes, flagDepth)
	if err != nil {
		return err
	}

	out := toCLISymbols(deps)
	return output(out, func(w io.Writer) { formatSymbolsText(w, out) })
}

func runSearch(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()

	var matches []graft.SearchMatch
	if flagExact {
		matches = cb.Find([]string{args[0]}, true)
	} else {
		matches, err = cb.Search(args[0], flagIncludeStrings, flagIncludeComments)
		if err != nil {
			return err
		}
	}

	out := make([]CLILocation, 0, len(matches))
	for _, m := range matches {
		out = append(out, CLILocation{File: m.Path, Line: m.Line + 1, Text: m.Text})
	}
	return output(out, func(w io.Writer) { formatLocationsText(w, out) })
}
