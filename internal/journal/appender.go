// Package journal records coordination events in an append-only JSONL log.
// Each record carries the hash of its predecessor, so a rewritten or
// truncated history is detectable after the fact.
package journal

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/baton-project/baton/pkg/errclass"
	"github.com/baton-project/baton/pkg/jsonutil"
	"github.com/baton-project/baton/pkg/model"
)

// FileName is the journal log file under the journal directory.
const FileName = "events.jsonl"

// Path returns the journal file path for a workspace rooted at baseDir.
func Path(baseDir string) string {
	return filepath.Join(baseDir, ".baton", "journal", FileName)
}

// Appender writes hash-chained journal records to a JSONL file.
type Appender struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// Option configures an Appender.
type Option func(*Appender)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Appender) { a.now = now }
}

// NewAppender creates an Appender writing to the given file.
func NewAppender(path string, opts ...Option) *Appender {
	a := &Appender{path: path, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Append adds one record to the log. The record is chained to the current
// last record and fsynced before Append returns.
func (a *Appender) Append(eventType model.JournalEventType, agentID, sessionID string, fencingToken int64, details map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return errclass.ErrStorageIO.WithMessagef("create journal dir: %v", err)
	}

	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return errclass.ErrStorageIO.WithMessagef("open journal: %v", err)
	}
	defer file.Close()

	// Cross-process exclusion while we read the tail and append.
	if err := lockFile(file); err != nil {
		return errclass.ErrStorageIO.WithMessagef("lock journal: %v", err)
	}
	defer unlockFile(file)

	prevHash, err := lastRecordHash(file)
	if err != nil {
		return err
	}

	record := &model.JournalRecord{
		Timestamp:    a.now().UTC(),
		EventType:    eventType,
		AgentID:      agentID,
		SessionID:    sessionID,
		FencingToken: fencingToken,
		Details:      details,
		PrevHash:     prevHash,
	}
	record.RecordHash, err = recordHash(record)
	if err != nil {
		return err
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}

	if _, err := file.Seek(0, 2); err != nil {
		return errclass.ErrStorageIO.WithMessagef("seek journal: %v", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return errclass.ErrStorageIO.WithMessagef("write journal record: %v", err)
	}
	if err := file.Sync(); err != nil {
		return errclass.ErrStorageIO.WithMessagef("sync journal: %v", err)
	}
	return nil
}

// Records reads every well-formed record in order. Malformed lines are
// skipped; Verify is the place to detect tampering.
func (a *Appender) Records() ([]model.JournalRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errclass.ErrStorageIO.WithMessagef("open journal: %v", err)
	}
	defer file.Close()

	var records []model.JournalRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.JournalRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, errclass.ErrStorageIO.WithMessagef("scan journal: %v", err)
	}
	return records, nil
}

// Verify walks the full chain and reports the first break: a record whose
// stored hash does not match its content, or whose prev_hash does not match
// the preceding record. Returns the number of verified records.
func (a *Appender) Verify() (int, error) {
	records, err := a.Records()
	if err != nil {
		return 0, err
	}

	var prev model.HashValue
	for i := range records {
		record := records[i]
		if record.PrevHash != prev {
			return i, errclass.ErrJournalChainBroken.WithMessagef("record %d: prev_hash mismatch", i)
		}
		want, err := recordHash(&record)
		if err != nil {
			return i, err
		}
		if record.RecordHash != want {
			return i, errclass.ErrJournalChainBroken.WithMessagef("record %d: record_hash mismatch", i)
		}
		prev = record.RecordHash
	}
	return len(records), nil
}

func lastRecordHash(file *os.File) (model.HashValue, error) {
	if _, err := file.Seek(0, 0); err != nil {
		return "", errclass.ErrStorageIO.WithMessagef("seek journal: %v", err)
	}

	var last model.HashValue
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.JournalRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		last = record.RecordHash
	}
	if err := scanner.Err(); err != nil {
		return "", errclass.ErrStorageIO.WithMessagef("scan journal: %v", err)
	}
	return last, nil
}

func recordHash(record *model.JournalRecord) (model.HashValue, error) {
	// Hash the record with RecordHash zeroed so stored and computed
	// hashes cover the same bytes.
	unsigned := *record
	unsigned.RecordHash = ""

	data, err := jsonutil.CanonicalMarshal(&unsigned)
	if err != nil {
		return "", fmt.Errorf("canonical marshal: %w", err)
	}
	sum := sha256.Sum256(data)
	return model.HashValue(hex.EncodeToString(sum[:])), nil
}
