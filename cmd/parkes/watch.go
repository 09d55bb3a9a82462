package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 300 * time.Millisecond

// WatchAndRun runs `go run ./cmd/parkes <args>` as a child process and
// restarts it whenever a file below paths changes. Directories whose base
// name is in ignore are not watched. It returns when ctx is cancelled.
func WatchAndRun(ctx context.Context, paths, ignore, args []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		if name = strings.TrimSpace(name); name != "" {
			skip[name] = true
		}
	}
	for _, p := range paths {
		if err := watchTree(w, strings.TrimSpace(p), skip); err != nil {
			return err
		}
	}

	var (
		mu    sync.Mutex
		child *exec.Cmd
	)
	start := func() error {
		mu.Lock()
		defer mu.Unlock()
		if child != nil {
			return nil
		}
		cmd := exec.CommandContext(ctx, "go", append([]string{"run", "./cmd/parkes"}, args...)...)
		cmd.Stdout, cmd.Stderr, cmd.Stdin = os.Stdout, os.Stderr, os.Stdin
		if err := cmd.Start(); err != nil {
			return err
		}
		child = cmd
		go func() {
			_ = cmd.Wait()
			mu.Lock()
			if child == cmd {
				child = nil
			}
			mu.Unlock()
		}()
		fmt.Printf("[watch] started child pid=%d\n", cmd.Process.Pid)
		return nil
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if child != nil && child.Process != nil {
			_ = child.Process.Kill()
		}
		child = nil
	}

	if err := start(); err != nil {
		return err
	}

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = watchTree(w, ev.Name, skip)
				}
			}
			fmt.Printf("[watch] change detected: %s\n", ev.Name)
			pending = true
			debounce.Reset(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch error:", err)
		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			stop()
			fmt.Println("[watch] rebuilding and restarting...")
			if err := start(); err != nil {
				fmt.Fprintln(os.Stderr, "failed to restart child:", err)
			}
		}
	}
}

// watchTree adds root and every directory below it, skipping ignored names.
func watchTree(w *fsnotify.Watcher, root string, skip map[string]bool) error {
	if root == "" {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && skip[d.Name()] {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// relevant drops chmod-only events and editor temp files.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	return !strings.HasSuffix(ev.Name, "~") && !strings.HasSuffix(ev.Name, ".swp")
}
