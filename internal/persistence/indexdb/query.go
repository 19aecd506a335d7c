package indexdb

import (
	"context"
	"database/sql"
	"errors"
)

type ForceStop struct {
	Tick        uint64
	TransportID string
	Owner       string
	Tile        [2]int
	StationID   string
}

// ForceStops lists the recorded force-stops of one transport, oldest first.
func (s *SQLiteIndex) ForceStops(ctx context.Context, transportID string) ([]ForceStop, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick, transport_id, owner, x, z, COALESCE(station_id,'') FROM force_stops WHERE transport_id = ? ORDER BY tick`,
		transportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ForceStop
	for rows.Next() {
		var f ForceStop
		var tick int64
		if err := rows.Scan(&tick, &f.TransportID, &f.Owner, &f.Tile[0], &f.Tile[1], &f.StationID); err != nil {
			return nil, err
		}
		f.Tick = uint64(tick)
		out = append(out, f)
	}
	return out, rows.Err()
}

// LatestSnapshot returns the path and tick of the newest indexed snapshot.
func (s *SQLiteIndex) LatestSnapshot(ctx context.Context) (path string, tick uint64, ok bool, err error) {
	var t int64
	err = s.db.QueryRowContext(ctx, `SELECT path, tick FROM snapshots ORDER BY tick DESC LIMIT 1`).Scan(&path, &t)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	return path, uint64(t), true, nil
}

// TickDigest returns the digest recorded for tick.
func (s *SQLiteIndex) TickDigest(ctx context.Context, tick uint64) (string, bool, error) {
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM ticks WHERE tick = ?`, int64(tick)).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	return d, err == nil, err
}

// CommandCount counts the indexed commands a player issued.
func (s *SQLiteIndex) CommandCount(ctx context.Context, playerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commands WHERE player_id = ?`, playerID).Scan(&n)
	return n, err
}
