package payments

import (
	"sync"
	"time"
)

// TransactionRecord is a Result the caller chose to remember, keyed by a
// caller-supplied correlation id. The store does not enforce uniqueness:
// duplicates are appended and lookups return the first match.
type TransactionRecord struct {
	Gateway       string         `json:"gateway"`
	Status        string         `json:"status"`
	Params        map[string]any `json:"params"`
	Message       string         `json:"message,omitempty"`
	TransactionID string         `json:"transaction_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TransactionPatch is a partial update applied by Update. Nil fields are
// left untouched.
type TransactionPatch struct {
	Status  *string
	Params  map[string]any
	Message *string
}

// TransactionStore keeps transaction records in memory, in insertion order.
// It never evicts; bounding growth is the caller's problem. Construct one
// per SDK instance so tests get isolated state.
type TransactionStore struct {
	mu      sync.RWMutex
	records []TransactionRecord
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{}
}

// Add appends a record. Zero timestamps are filled with the current time.
func (s *TransactionStore) Add(record TransactionRecord) {
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}

// Update merges patch into the first record matching transactionID and
// bumps its UpdatedAt. Unknown ids are a no-op.
func (s *TransactionStore) Update(transactionID string, patch TransactionPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].TransactionID != transactionID {
			continue
		}
		if patch.Status != nil {
			s.records[i].Status = *patch.Status
		}
		if patch.Message != nil {
			s.records[i].Message = *patch.Message
		}
		if patch.Params != nil {
			if s.records[i].Params == nil {
				s.records[i].Params = make(map[string]any, len(patch.Params))
			}
			for k, v := range patch.Params {
				s.records[i].Params[k] = v
			}
		}
		s.records[i].UpdatedAt = time.Now()
		return
	}
}

// Get returns the first record matching transactionID.
func (s *TransactionStore) Get(transactionID string) (TransactionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.TransactionID == transactionID {
			return rec, true
		}
	}
	return TransactionRecord{}, false
}

// List returns a copy of all records in insertion order, so callers cannot
// mutate store internals through the returned slice.
func (s *TransactionStore) List() []TransactionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TransactionRecord, len(s.records))
	copy(out, s.records)
	return out
}
