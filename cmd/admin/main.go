// The admin tool inspects and moves player state without going through
// the HTTP API. It opens the sqlite database directly, so run it against
// a stopped server or a copy of the file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"emberhollow.gg/internal/export"
	"emberhollow.gg/internal/state"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "show":
			showCmd(os.Args[2:])
			return
		case "export":
			exportCmd(os.Args[2:])
			return
		case "import":
			importCmd(os.Args[2:])
			return
		case "reset":
			resetCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin <show|export|import|reset> [flags]")
	os.Exit(2)
}

func openStore(dbPath string) *state.Store {
	store, err := state.Open(dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return store
}

func showCmd(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dbPath := fs.String("db", "./data/emberhollow.db", "sqlite database path")
	userID := fs.String("user", "", "user id")
	_ = fs.Parse(args)
	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(2)
	}

	store := openStore(*dbPath)
	defer store.Close()

	dump, err := store.ExportPlayer(context.Background(), *userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(dump, "", "  ")
	fmt.Println(string(out))
}

func exportCmd(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbPath := fs.String("db", "./data/emberhollow.db", "sqlite database path")
	userID := fs.String("user", "", "user id")
	outPath := fs.String("out", "", "output path (default ./dumps/<user>.json.zst)")
	_ = fs.Parse(args)
	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(2)
	}
	path := *outPath
	if path == "" {
		path = filepath.Join("dumps", *userID+".json.zst")
	}

	store := openStore(*dbPath)
	defer store.Close()

	dump, err := store.ExportPlayer(context.Background(), *userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(1)
	}
	if err := export.WriteDump(path, dump); err != nil {
		fmt.Fprintln(os.Stderr, "write:", err)
		os.Exit(1)
	}
	fmt.Println(path)
}

func importCmd(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", "./data/emberhollow.db", "sqlite database path")
	inPath := fs.String("in", "", "dump path")
	_ = fs.Parse(args)
	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "missing -in")
		os.Exit(2)
	}

	header, dump, err := export.ReadDump(*inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}

	store := openStore(*dbPath)
	defer store.Close()

	if err := store.ImportPlayer(context.Background(), dump); err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(1)
	}
	fmt.Printf("imported %s (exported at %s)\n", header.UserID, header.ExportedAt)
}

func resetCmd(args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	dbPath := fs.String("db", "./data/emberhollow.db", "sqlite database path")
	userID := fs.String("user", "", "user id")
	_ = fs.Parse(args)
	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(2)
	}

	store := openStore(*dbPath)
	defer store.Close()

	if err := store.ResetPlayer(context.Background(), *userID); err != nil {
		fmt.Fprintln(os.Stderr, "reset:", err)
		os.Exit(1)
	}
	fmt.Println("reset", *userID)
}
