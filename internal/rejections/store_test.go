package rejections

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcadvisor/internal/schemagate"
)

func TestLogAppendsDailyFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLog(dir)
	l.now = func() time.Time { return time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC) }

	require.NoError(t, l.Write(t.Context(), "b1", "danawa", []schemagate.Rejection{
		{Scope: "part:https://shop.example/p/1", Reason: "price failed gt"},
	}))
	require.NoError(t, l.Write(t.Context(), "b2", "", []schemagate.Rejection{
		{Scope: "part#4", Reason: "link failed required"},
	}))
	require.NoError(t, l.Write(t.Context(), "b3", "", nil))

	f, err := os.Open(filepath.Join(dir, "rejections_2026-03-09.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var records []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		records = append(records, r)
	}
	require.Len(t, records, 2)
	assert.Equal(t, "b1", records[0].BatchID)
	assert.Equal(t, "danawa", records[0].Source)
	assert.Equal(t, "price failed gt", records[0].Reason)
	assert.Equal(t, "part#4", records[1].Scope)
	assert.Equal(t, "2026-03-09T23:30:00Z", records[1].Timestamp)
}
