// Package memory implements domain.Store in process memory.
//
// Row locks are held until the owning transaction ends. Exclusive locks behave
// like SELECT ... FOR UPDATE and share locks like SELECT ... FOR SHARE. Writes apply immediately and are undone on rollback,
// so readers that do not take the row lock may observe uncommitted data; every
// read that decides a hold or payment happens under the relevant seat lock.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const defaultLockTimeout = 5 * time.Second

type Option func(*database)

// WithLockTimeout bounds how long a Lock* call waits for a busy row.
func WithLockTimeout(d time.Duration) Option {
	return func(db *database) {
		if d > 0 {
			db.lockTimeout = d
		}
	}
}

type Store struct {
	db *database
	tx *transaction
}

var _ domain.Store = (*Store)(nil)

type lockKey struct {
	table string
	id    int
}

type lockMode int

const (
	lockShared lockMode = iota + 1
	lockExclusive
)

type transaction struct {
	held map[lockKey]lockMode
	undo []func()
}

// rowLock admits many share holders or one exclusive holder. changed is
// closed and replaced whenever a holder leaves.
type rowLock struct {
	writer  *transaction
	readers map[*transaction]struct{}
	changed chan struct{}
}

func newRowLock() *rowLock {
	return &rowLock{readers: make(map[*transaction]struct{}), changed: make(chan struct{})}
}

func (l *rowLock) grant(tx *transaction, mode lockMode) bool {
	if l.writer != nil && l.writer != tx {
		return false
	}

	if mode == lockShared {
		l.readers[tx] = struct{}{}
		return true
	}

	for reader := range l.readers {
		if reader != tx {
			return false
		}
	}

	l.writer = tx
	return true
}

func (l *rowLock) drop(tx *transaction) {
	delete(l.readers, tx)
	if l.writer == tx {
		l.writer = nil
	}

	close(l.changed)
	l.changed = make(chan struct{})
}

type database struct {
	mu          sync.Mutex
	lockTimeout time.Duration
	locks       map[lockKey]*rowLock
	seq         map[string]int

	movies       map[int]domain.Movie
	rooms        map[int]domain.Room
	seats        map[int]domain.Seat
	showings     map[int]domain.Showing
	schedules    map[int]domain.Schedule
	reservations map[int]*domain.Reservation
	accessLog    []domain.TicketAccess
}

func New(opts ...Option) *Store {
	db := &database{
		lockTimeout:  defaultLockTimeout,
		locks:        make(map[lockKey]*rowLock),
		seq:          make(map[string]int),
		movies:       make(map[int]domain.Movie),
		rooms:        make(map[int]domain.Room),
		seats:        make(map[int]domain.Seat),
		showings:     make(map[int]domain.Showing),
		schedules:    make(map[int]domain.Schedule),
		reservations: make(map[int]*domain.Reservation),
	}

	for _, opt := range opts {
		opt(db)
	}

	return &Store{db: db}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx := &transaction{held: make(map[lockKey]lockMode)}
	committed := false

	defer func() {
		if !committed {
			s.db.rollback(tx)
		}
		s.db.release(tx)
	}()

	if err := fn(ctx, &Store{db: s.db, tx: tx}); err != nil {
		return err
	}

	committed = true
	return nil
}

// TicketAccessLog returns a copy of every recorded ticket access.
func (s *Store) TicketAccessLog() []domain.TicketAccess {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	return slices.Clone(s.db.accessLog)
}

func (s *Store) lock(ctx context.Context, table string, id int) error {
	return s.acquire(ctx, lockKey{table: table, id: id}, lockExclusive)
}

func (s *Store) shareLock(ctx context.Context, table string, id int) error {
	return s.acquire(ctx, lockKey{table: table, id: id}, lockShared)
}

func (s *Store) acquire(ctx context.Context, key lockKey, mode lockMode) error {
	if s.tx == nil {
		return domain.ErrNoTransaction
	}

	if s.tx.held[key] >= mode {
		return nil
	}

	timer := time.NewTimer(s.db.lockTimeout)
	defer timer.Stop()

	for {
		s.db.mu.Lock()
		l, ok := s.db.locks[key]
		if !ok {
			l = newRowLock()
			s.db.locks[key] = l
		}

		if l.grant(s.tx, mode) {
			s.tx.held[key] = mode
			s.db.mu.Unlock()
			return nil
		}

		changed := l.changed
		s.db.mu.Unlock()

		select {
		case <-changed:
		case <-timer.C:
			return domain.ErrLockTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (db *database) release(tx *transaction) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for key := range tx.held {
		db.locks[key].drop(tx)
	}
	tx.held = nil
}

func (db *database) rollback(tx *transaction) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// write runs apply under the database mutex and records the undo step it
// returns when running inside a transaction.
func (s *Store) write(apply func(db *database) (undo func(), err error)) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	undo, err := apply(s.db)
	if err != nil {
		return err
	}

	if s.tx != nil && undo != nil {
		s.tx.undo = append(s.tx.undo, undo)
	}

	return nil
}

func (s *Store) read(fn func(db *database) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	return fn(s.db)
}

func (db *database) next(table string) int {
	db.seq[table]++
	return db.seq[table]
}

// restore returns an undo step that puts m[id] back to its state before a write.
func restore[V any](m map[int]V, id int) func() {
	old, existed := m[id]

	return func() {
		if existed {
			m[id] = old
		} else {
			delete(m, id)
		}
	}
}

func sortedValues[V any](m map[int]V, keep func(V) bool, compare func(a, b V) int) []V {
	out := make([]V, 0)
	for _, v := range m {
		if keep(v) {
			out = append(out, v)
		}
	}

	slices.SortFunc(out, compare)
	return out
}

func byID[V any](id func(V) int) func(a, b V) int {
	return func(a, b V) int {
		return cmp.Compare(id(a), id(b))
	}
}
