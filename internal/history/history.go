// Package history is the command log, kept in an embedded bbolt database.
package history

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const bucketCommands = "commands"

// Entry is one executed command.
type Entry struct {
	ID         uint64        `json:"id"`
	Time       time.Time     `json:"time"`
	Source     string        `json:"source,omitempty"`
	Text       string        `json:"text"`
	Action     string        `json:"action"`
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	DurationMS int64         `json:"duration_ms"`
	Duration   time.Duration `json:"-"`
}

// ActionCount is one row of the top actions table.
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// Stats summarizes the log.
type Stats struct {
	Total       int           `json:"total"`
	Successful  int           `json:"successful"`
	Failed      int           `json:"failed"`
	SuccessRate float64       `json:"success_rate"`
	TopActions  []ActionCount `json:"top_actions"`
}

// Log is the history database.
type Log struct {
	db         *bbolt.DB
	maxEntries int
}

// Open opens or creates the database at path. maxEntries bounds the log;
// zero keeps everything.
func Open(path string, maxEntries int) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCommands))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history bucket: %w", err)
	}
	return &Log{db: db, maxEntries: maxEntries}, nil
}

// Close releases the database file.
func (l *Log) Close() error {
	return l.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Record appends an entry and assigns its ID.
func (l *Log) Record(ctx context.Context, e Entry) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return e, err
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.DurationMS = e.Duration.Milliseconds()

	err := l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketCommands))
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		e.ID = id
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := b.Put(itob(id), data); err != nil {
			return err
		}
		return l.trim(b, id)
	})
	if err != nil {
		return e, fmt.Errorf("recording history: %w", err)
	}
	return e, nil
}

// trim deletes entries older than the newest maxEntries. IDs come from the
// bucket sequence, so everything below newest-maxEntries+1 goes.
func (l *Log) trim(b *bbolt.Bucket, newest uint64) error {
	if l.maxEntries <= 0 || newest <= uint64(l.maxEntries) {
		return nil
	}
	cutoff := itob(newest - uint64(l.maxEntries) + 1)
	c := b.Cursor()
	for k, _ := c.First(); k != nil && bytes.Compare(k, cutoff) < 0; k, _ = c.First() {
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Entry
	err := l.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketCommands)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decoding entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			e.Duration = time.Duration(e.DurationMS) * time.Millisecond
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return out, nil
}

// Stats aggregates the whole log. topN bounds TopActions.
func (l *Log) Stats(ctx context.Context, topN int) (Stats, error) {
	entries, err := l.Recent(ctx, 0)
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	counts := make(map[string]int)
	for _, e := range entries {
		s.Total++
		if e.Success {
			s.Successful++
		} else {
			s.Failed++
		}
		counts[e.Action]++
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Successful) / float64(s.Total) * 100
	}
	for a, n := range counts {
		s.TopActions = append(s.TopActions, ActionCount{Action: a, Count: n})
	}
	sort.Slice(s.TopActions, func(i, j int) bool {
		if s.TopActions[i].Count != s.TopActions[j].Count {
			return s.TopActions[i].Count > s.TopActions[j].Count
		}
		return s.TopActions[i].Action < s.TopActions[j].Action
	})
	if topN > 0 && len(s.TopActions) > topN {
		s.TopActions = s.TopActions[:topN]
	}
	return s, nil
}
