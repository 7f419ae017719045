package persistence

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/stadam/econ-pricer/internal/state"
)

// HistoryLog is the append-only, length-prefixed binary stream backing
// history.bin: records are written one at a time in a length-prefixed
// binary format.
type HistoryLog struct {
	file *os.File
}

// OpenHistoryLog opens path for append, creating it if absent. A failure
// here is fatal — the caller should exit.
func OpenHistoryLog(path string) (*HistoryLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open history log: %w", err)
	}
	return &HistoryLog{file: f}, nil
}

// Close closes the underlying file.
func (h *HistoryLog) Close() error {
	return h.file.Close()
}

// AppendRecord serializes rec and writes it as a single length-prefixed gob
// frame. It is the caller's job to batch calls and Sync() periodically.
func (h *HistoryLog) AppendRecord(rec state.TransactionRecord) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	var lenHeader [4]byte
	binary.BigEndian.PutUint32(lenHeader[:], uint32(buf.Len()))
	if _, err := h.file.Write(lenHeader[:]); err != nil {
		return fmt.Errorf("write length header: %w", err)
	}
	if _, err := h.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write record body: %w", err)
	}
	return nil
}

// Sync flushes the file to stable storage.
func (h *HistoryLog) Sync() error {
	return h.file.Sync()
}

// ReplayHistoryLog reads every well-formed length-prefixed record from path.
// It is best-effort crash recovery: a truncated trailing frame is silently
// dropped rather than treated as fatal.
func ReplayHistoryLog(path string) ([]state.TransactionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var records []state.TransactionRecord
	for {
		var lenHeader [4]byte
		if _, err := io.ReadFull(r, lenHeader[:]); err != nil {
			break // EOF or a truncated trailing header: stop, keep what we have
		}
		n := binary.BigEndian.Uint32(lenHeader[:])
		body := make([]byte, n)
		if _, err := io.ReadFull(r, body); err != nil {
			break // truncated trailing body from a crash mid-write
		}
		var rec state.TransactionRecord
		if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&rec); err != nil {
			continue // corrupt frame: skip, keep scanning
		}
		records = append(records, rec)
	}
	return records, nil
}
