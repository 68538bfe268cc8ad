// Command manodiag renders a Mermaid-like diagram file into a positioned
// scene. By default it prints the scene snapshot as JSON; -preview shows
// it in the terminal, and -watch re-renders whenever the file changes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"manodiag/engine"
	"manodiag/store"
	"manodiag/terminal"
)

func main() {
	positions := flag.String("positions", "manodiag_positions.json", "layout store file")
	watch := flag.Bool("watch", false, "re-render when the input file changes")
	preview := flag.Bool("preview", false, "show the scene in the terminal")
	fixed := flag.Bool("fix-layout", false, "rewrite the file with layout: fixed and exit")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: manodiag [flags] <file>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	text, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	if *fixed {
		updated := engine.EnsureFixedLayout(string(text))
		if updated == string(text) {
			return
		}
		if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
			log.Fatalf("write %s: %v", path, err)
		}
		return
	}

	st := store.Open(*positions, nil)
	eng := engine.New(st, nil)
	eng.RenderText(string(text))

	if *watch {
		go watchFile(path, eng)
	}

	if *preview {
		status := func() string { return eng.Renderer().Describe() }
		if err := terminal.Preview(eng.Surface(), status); err != nil {
			log.Fatalf("preview: %v", err)
		}
		return
	}

	out, err := json.MarshalIndent(eng.Snapshot(), "", "  ")
	if err != nil {
		log.Fatalf("encode snapshot: %v", err)
	}
	fmt.Println(string(out))
}

// watchFile re-renders on every write to path, debounced so editors that
// save in multiple syscalls trigger one render.
func watchFile(path string, eng *engine.Engine) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("watch: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		log.Printf("watch %s: %v", path, err)
		return
	}

	debounced := debounce.New(300 * time.Millisecond)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounced(func() {
				text, err := os.ReadFile(path)
				if err != nil {
					log.Printf("read %s: %v", path, err)
					return
				}
				eng.RenderText(string(text))
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: %v", err)
		}
	}
}
