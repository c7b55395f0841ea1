package ytframe

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded encode run. It carries everything a later decode
// needs when the manifest file has been lost but the video can still be
// matched by file name or hosting id.
type Run struct {
	ID               string
	CreatedAt        time.Time
	InputFile        string
	VideoFile        string
	VideoID          string
	Width            int
	Height           int
	Block            int
	Gutter           int
	FPS              int
	OriginalLength   uint64
	CompressedLength uint64
	PayloadLength    int
	Frames           int
	Compressed       bool
	PayloadCRC32     string
}

// RunDB is the sqlite-backed store of encode runs.
type RunDB struct {
	db *sql.DB
}

// NewRunDB opens or creates the run store at file.
func NewRunDB(file string) (*RunDB, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS run (
		id TEXT PRIMARY KEY NOT NULL,
		created_at TIMESTAMP NOT NULL,
		input_file TEXT NOT NULL,
		video_file TEXT NOT NULL,
		video_id TEXT NOT NULL DEFAULT '',
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		block INTEGER NOT NULL,
		gutter INTEGER NOT NULL,
		fps INTEGER NOT NULL,
		original_length INTEGER NOT NULL,
		compressed_length INTEGER NOT NULL,
		payload_length INTEGER NOT NULL,
		frames INTEGER NOT NULL,
		compressed INTEGER NOT NULL,
		payload_crc32 TEXT NOT NULL
	)`); err != nil {
		return nil, err
	}

	return &RunDB{
		db: db,
	}, nil
}

func (db *RunDB) Close() error {
	return db.db.Close()
}

// Add inserts a run, assigning it an id and timestamp if unset.
func (db *RunDB) Add(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := db.db.Exec(`INSERT INTO run (id, created_at, input_file, video_file, video_id,
		width, height, block, gutter, fps, original_length, compressed_length,
		payload_length, frames, compressed, payload_crc32)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt, r.InputFile, r.VideoFile, r.VideoID,
		r.Width, r.Height, r.Block, r.Gutter, r.FPS, r.OriginalLength, r.CompressedLength,
		r.PayloadLength, r.Frames, r.Compressed, r.PayloadCRC32)
	return err
}

// SetVideoID records the hosting id assigned to a run's uploaded video.
func (db *RunDB) SetVideoID(runID, videoID string) error {
	result, err := db.db.Exec("UPDATE run SET video_id = ? WHERE id = ?", videoID, runID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("ytframe: no run with id %q", runID)
	}
	return nil
}

const runColumns = `id, created_at, input_file, video_file, video_id,
	width, height, block, gutter, fps, original_length, compressed_length,
	payload_length, frames, compressed, payload_crc32`

func scanRun(s interface{ Scan(...any) error }) (*Run, error) {
	r := new(Run)
	if err := s.Scan(&r.ID, &r.CreatedAt, &r.InputFile, &r.VideoFile, &r.VideoID,
		&r.Width, &r.Height, &r.Block, &r.Gutter, &r.FPS, &r.OriginalLength, &r.CompressedLength,
		&r.PayloadLength, &r.Frames, &r.Compressed, &r.PayloadCRC32); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns all recorded runs, newest first.
func (db *RunDB) List() ([]*Run, error) {
	rows, err := db.db.Query("SELECT " + runColumns + " FROM run ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FindByVideoID returns the run uploaded under the given hosting id, or nil
// when no such run is recorded.
func (db *RunDB) FindByVideoID(videoID string) (*Run, error) {
	r, err := scanRun(db.db.QueryRow("SELECT "+runColumns+" FROM run WHERE video_id = ?", videoID))
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return r, nil
	default:
		return nil, err
	}
}
