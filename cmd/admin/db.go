package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// dbCmd runs one of a few fixed queries against a game's index and prints
// JSON lines.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	gameID := fs.String("game", "", "game id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	transport := fs.String("transport", "", "transport id filter (force_stops)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*gameID) == "" {
			fmt.Fprintln(os.Stderr, "missing -game or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "games", *gameID, "index", "game.sqlite")
	}
	if *limit <= 0 {
		*limit = 20
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runQuery(db, q, *transport, *limit, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
}

func runQuery(db *sql.DB, q, transport string, limit int, w *os.File) error {
	var (
		rows *sql.Rows
		err  error
	)
	switch q {
	case "snapshots":
		rows, err = db.Query(`SELECT tick,path,game_time,players,tracks,buildings,transports,stopped FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	case "force_stops":
		if transport != "" {
			rows, err = db.Query(`SELECT tick,transport_id,owner,x,z,COALESCE(station_id,'') FROM force_stops WHERE transport_id = ? ORDER BY tick DESC LIMIT ?`, transport, limit)
		} else {
			rows, err = db.Query(`SELECT tick,transport_id,owner,x,z,COALESCE(station_id,'') FROM force_stops ORDER BY tick DESC LIMIT ?`, limit)
		}
	case "ticks":
		rows, err = db.Query(`SELECT tick,digest,joins,leaves,commands,force_stops FROM ticks ORDER BY tick DESC LIMIT ?`, limit)
	case "commands":
		rows, err = db.Query(`SELECT tick,seq,player_id,cmd_id,kind FROM commands ORDER BY tick DESC, seq DESC LIMIT ?`, limit)
	default:
		return fmt.Errorf("unknown query %q (snapshots, force_stops, ticks, commands)", q)
	}
	if err != nil {
		return err
	}
	defer rows.Close()
	return printRows(rows, w)
}

// printRows writes each row as a JSON object keyed by column name.
func printRows(rows *sql.Rows, w *os.File) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		rec := make(map[string]any, len(cols))
		for i, c := range cols {
			rec[c] = vals[i]
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}
