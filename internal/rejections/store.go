// Package rejections keeps a durable append-only log of rejected ingest rows.
package rejections

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pcadvisor/internal/schemagate"
)

// Record is one line of a rejections file.
type Record struct {
	Scope     string `json:"scope"`
	Reason    string `json:"reason"`
	BatchID   string `json:"batch_id"`
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Log appends rejections to one JSONL file per UTC day under dir.
type Log struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewLog returns a log rooted at dir. The directory is created lazily.
func NewLog(dir string) *Log {
	if dir == "" {
		dir = "./data/rejections"
	}
	return &Log{dir: dir, now: time.Now}
}

// Write appends the rejections of one batch.
func (l *Log) Write(ctx context.Context, batchID, source string, rejected []schemagate.Rejection) error {
	if len(rejected) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := l.now().UTC()
	var buf []byte
	for _, r := range rejected {
		data, err := json.Marshal(Record{
			Scope:     r.Scope,
			Reason:    r.Reason,
			BatchID:   batchID,
			Source:    source,
			Timestamp: now.Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	fpath := filepath.Join(l.dir, fmt.Sprintf("rejections_%s.jsonl", now.Format("2006-01-02")))
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(buf)
	return err
}
