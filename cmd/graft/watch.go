package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the graph in sync as files change",
	Long:  "Watches the working tree and re-indexes files as they are created, modified, or removed. Events are debounced per file.",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var flagDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", 250*time.Millisecond, "settle time before re-indexing a changed file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cb, err := openCodebase(cmd.Context())
	if err != nil {
		return err
	}
	defer cb.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch every directory under root; fsnotify is not recursive.
	err = filepath.WalkDir(cb.Root(), func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != cb.Root() && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor" || name == "__pycache__") {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Watching %s\n", cb.Root())

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(flagDebounce)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(cb.Root(), ev.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = watcher.Add(ev.Name)
					continue
				}
			}
			pending[rel] = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %s\n", err)
		case now := <-ticker.C:
			for rel, at := range pending {
				if now.Sub(at) < flagDebounce {
					continue
				}
				delete(pending, rel)
				if err := cb.Refresh(cmd.Context(), rel); err != nil {
					fmt.Fprintf(os.Stderr, "refresh %s: %s\n", rel, err)
					continue
				}
				fmt.Fprintf(os.Stderr, "synced %s\n", rel)
			}
		}
	}
}
