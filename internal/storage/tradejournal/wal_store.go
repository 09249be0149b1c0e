// Package tradejournal is an append-only audit log of executed trades, one WAL per dashboard session.
package tradejournal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

const (
	defaultJournalDir   = "./wal/trades"
	journalSegmentLimit = 1000
	journalMaxSegments  = 100

	tradeKeyPrefix = "trade_"
	headerKey      = "session_header"
)

// Header marks the start of a ledger: the pair and its genesis balances.
// A session holds a new header after every wallet reset.
type Header struct {
	Pair    string             `json:"pair"`
	Genesis domain.WalletState `json:"genesis"`
}

// Record is a journaled trade with its WAL index, used as the SSE event id.
type Record struct {
	Index uint64       `json:"index"`
	Trade domain.Trade `json:"trade"`
}

// Session is the replayable content of a journal.
type Session struct {
	Header Header
	Trades []domain.Trade
}

// WALStore persists trades in a gowal WAL under <dir>/<session>.
type WALStore struct {
	wal     *gowal.Wal
	session string
	dir     string
	mu      sync.RWMutex
}

// NewSession starts a journal in a fresh session directory named by a random UUID.
func NewSession(dir string) (*WALStore, error) {
	return Open(dir, uuid.NewString())
}

// Open opens (or creates) the journal of an existing session.
func Open(dir, session string) (*WALStore, error) {
	if dir == "" {
		dir = defaultJournalDir
	}
	if session == "" || strings.ContainsAny(session, `/\`) || session == "." || session == ".." {
		return nil, errors.Errorf("invalid journal session %q", session)
	}

	path := filepath.Join(dir, session)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrap(err, "create journal dir")
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              path,
		Prefix:           "trades_",
		SegmentThreshold: journalSegmentLimit,
		MaxSegments:      journalMaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init trade journal WAL")
	}

	return &WALStore{wal: wal, session: session, dir: path}, nil
}

// Sessions lists the session ids found under dir.
func Sessions(dir string) ([]string, error) {
	if dir == "" {
		dir = defaultJournalDir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read journal dir")
	}

	var sessions []string
	for _, e := range entries {
		if e.IsDir() {
			sessions = append(sessions, e.Name())
		}
	}
	return sessions, nil
}

// LatestSession returns the most recently modified session under dir.
func LatestSession(dir string) (string, error) {
	if dir == "" {
		dir = defaultJournalDir
	}
	sessions, err := Sessions(dir)
	if err != nil {
		return "", err
	}

	var (
		latest   string
		latestAt time.Time
	)
	for _, id := range sessions {
		info, err := os.Stat(filepath.Join(dir, id))
		if err != nil {
			return "", errors.Wrapf(err, "stat session %s", id)
		}
		if latest == "" || info.ModTime().After(latestAt) {
			latest, latestAt = id, info.ModTime()
		}
	}
	if latest == "" {
		return "", errors.Errorf("no journal sessions in %s", dir)
	}
	return latest, nil
}

// SessionID returns the session directory name.
func (s *WALStore) SessionID() string {
	return s.session
}

// Begin writes a session header. Call it once at startup; the ledger calls it again on reset.
func (s *WALStore) Begin(pair domain.Pair, genesis domain.WalletState) error {
	return s.write(headerKey, Header{Pair: pair.String(), Genesis: genesis})
}

// Record appends trade. It satisfies the ledger recorder hook.
func (s *WALStore) Record(trade domain.Trade) error {
	if trade.ID == "" {
		return errors.New("trade id is required")
	}
	return s.write(tradeKeyPrefix+trade.ID, trade)
}

func (s *WALStore) write(key string, v any) error {
	if s == nil || s.wal == nil {
		return errors.New("trade journal is not initialized")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Write(s.wal.CurrentIndex()+1, key, payload)
}

// TradesAfter returns all trades written after the provided WAL index.
func (s *WALStore) TradesAfter(index uint64) ([]Record, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("trade journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]Record, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		// a missing index comes back as an empty key
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, tradeKeyPrefix) {
			continue
		}
		var trade domain.Trade
		if err := json.Unmarshal(payload, &trade); err != nil {
			return nil, errors.Wrapf(err, "decode trade at %d", idx)
		}
		records = append(records, Record{Index: idx, Trade: trade})
	}

	return records, nil
}

// Load reads the session back. Trades before the last header belong to a
// reset wallet and are skipped.
func (s *WALStore) Load() (Session, error) {
	if s == nil || s.wal == nil {
		return Session{}, errors.New("trade journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		session   Session
		hasHeader bool
	)
	for idx := uint64(1); idx <= s.wal.CurrentIndex(); idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			return Session{}, errors.Wrapf(err, "read journal record %d", idx)
		}
		switch {
		case key == headerKey:
			if err := json.Unmarshal(payload, &session.Header); err != nil {
				return Session{}, errors.Wrapf(err, "decode header at %d", idx)
			}
			session.Trades = nil
			hasHeader = true
		case strings.HasPrefix(key, tradeKeyPrefix):
			var trade domain.Trade
			if err := json.Unmarshal(payload, &trade); err != nil {
				return Session{}, errors.Wrapf(err, "decode trade at %d", idx)
			}
			session.Trades = append(session.Trades, trade)
		}
	}
	if !hasHeader {
		return Session{}, errors.Errorf("journal session %s has no header", s.session)
	}

	return session, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("trade journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
