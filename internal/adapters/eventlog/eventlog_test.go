package eventlog_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/eventlog"
	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_AppendsOneLinePerRecord(t *testing.T) {
	dir := t.TempDir()
	w, err := eventlog.NewWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write("ev-1", domain.EventRecord{
		Type:     domain.RecordBetPlaced,
		MarketID: "1.234",
		Size:     10,
		Price:    2.5,
	}))
	require.NoError(t, w.Write("ev-1", domain.EventRecord{
		Type:     domain.RecordOddsUpdate,
		MarketID: "1.234",
		OddsA:    1.8,
	}))
	require.NoError(t, w.Close())

	f, err := os.Open(filepath.Join(dir, "ev-1.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var records []domain.EventRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec domain.EventRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, sc.Err())
	require.Len(t, records, 2)

	assert.Equal(t, domain.RecordBetPlaced, records[0].Type)
	assert.Equal(t, domain.RecordOddsUpdate, records[1].Type)
	for _, rec := range records {
		assert.NotEmpty(t, rec.RecordID)
		assert.False(t, rec.At.IsZero())
		assert.WithinDuration(t, time.Now(), rec.At, time.Minute)
	}
}

func TestWriter_PartitionsByEvent(t *testing.T) {
	dir := t.TempDir()
	w, err := eventlog.NewWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write("ev-a", domain.EventRecord{Type: domain.RecordMarketClosed}))
	require.NoError(t, w.Write("ev-b", domain.EventRecord{Type: domain.RecordMarketExcluded}))
	require.NoError(t, w.Close())

	assert.FileExists(t, filepath.Join(dir, "ev-a.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "ev-b.jsonl"))
}
