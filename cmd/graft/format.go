package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

func validateFormat(f string) error {
	if f != "json" && f != "text" {
		return fmt.Errorf("invalid format %q: must be json or text", f)
	}
	return nil
}

// output prints v as JSON, or via textFn when --format=text.
func output(v any, textFn func(io.Writer)) error {
	if flagFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	textFn(os.Stdout)
	return nil
}

// CLISymbol is the symbol shape emitted by query commands.
type CLISymbol struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Exported bool   `json:"exported"`
}

func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE\tEXPORTED")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\n", s.Name, s.Kind, s.File, s.Line, s.Exported)
	}
	tw.Flush()
}

// CLILocation is a file position emitted by usages and search.
type CLILocation struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Context string `json:"context,omitempty"`
	Text    string `json:"text,omitempty"`
}

func formatLocationsText(w io.Writer, locs []CLILocation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, loc := range locs {
		extra := loc.Context
		if extra == "" {
			extra = loc.Text
		}
		fmt.Fprintf(tw, "%s:%d\t%s\n", loc.File, loc.Line, extra)
	}
	tw.Flush()
}

// CLICommit is the per-file commit outcome shape.
type CLICommit struct {
	File    string `json:"file"`
	Applied int    `json:"applied"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

func formatCommitsText(w io.Writer, commits []CLICommit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tAPPLIED\tSKIPPED\tERROR")
	for _, c := range commits {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", c.File, c.Applied, c.Skipped, c.Error)
	}
	tw.Flush()
}
