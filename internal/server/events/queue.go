// Package events carries upload events from the upload coordinator to the
// metadata recorder. Events are written to a badger-backed outbox and
// delivered at least once, in publish order.
package events

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/filex"
	"github.com/dmitrijs2005/sparkdrive/internal/logging"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
)

// Publisher announces a completed blob write.
type Publisher interface {
	Publish(ctx context.Context, event *models.UploadEvent) error
}

// Handler processes one event. A nil return acknowledges it. An error of
// kind common.KindInvalidArgument marks the event as undeliverable and it
// is dropped; any other error leaves it queued for the next poll.
type Handler func(ctx context.Context, event *models.UploadEvent) error

const (
	eventPrefix = "evt:"
	seqKey      = "seq:evt"
	batchSize   = 64
)

type Options struct {
	// Dir is the badger directory. Ignored when InMemory is set.
	Dir          string
	InMemory     bool
	PollInterval time.Duration
	Logger       logging.Logger
}

type Queue struct {
	db   *badger.DB
	seq  *badger.Sequence
	poll time.Duration
	log  logging.Logger
	wake chan struct{}
}

func Open(opts Options) (*Queue, error) {
	var bo badger.Options
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir, err := filex.EnsureDir(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare event queue dir: %w", err)
		}
		bo = badger.DefaultOptions(dir)
	}
	bo = bo.WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("failed to open event queue at %s: %w", opts.Dir, err)
	}
	seq, err := db.GetSequence([]byte(seqKey), 128)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open event sequence: %w", err)
	}

	poll := opts.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &Queue{
		db:   db,
		seq:  seq,
		poll: poll,
		log:  log.With("module", "events"),
		wake: make(chan struct{}, 1),
	}, nil
}

func (q *Queue) Close() error {
	return errors.Join(q.seq.Release(), q.db.Close())
}

func eventKey(n uint64) []byte {
	k := make([]byte, len(eventPrefix)+8)
	copy(k, eventPrefix)
	binary.BigEndian.PutUint64(k[len(eventPrefix):], n)
	return k
}

// Publish durably appends event. Once it returns nil the event survives a
// restart.
func (q *Queue) Publish(ctx context.Context, event *models.UploadEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal upload event: %w", err)
	}
	n, err := q.seq.Next()
	if err != nil {
		return fmt.Errorf("next event sequence: %w", err)
	}
	if err := q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(n), data)
	}); err != nil {
		return fmt.Errorf("append upload event: %w", err)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending counts events not yet acknowledged.
func (q *Queue) Pending() (int, error) {
	n := 0
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

type pending struct {
	key  []byte
	data []byte
}

func (q *Queue) next(limit int) ([]pending, error) {
	var out []pending
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid() && len(out) < limit; it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, pending{key: item.KeyCopy(nil), data: data})
		}
		return nil
	})
	return out, err
}

func (q *Queue) ack(key []byte) error {
	return q.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Drain hands queued events to h in publish order until the queue is
// empty or h asks for a retry. It returns the number of events removed.
func (q *Queue) Drain(ctx context.Context, h Handler) (int, error) {
	done := 0
	for {
		batch, err := q.next(batchSize)
		if err != nil {
			return done, fmt.Errorf("read event queue: %w", err)
		}
		if len(batch) == 0 {
			return done, nil
		}
		for _, p := range batch {
			if err := ctx.Err(); err != nil {
				return done, err
			}

			var ev models.UploadEvent
			if err := json.Unmarshal(p.data, &ev); err != nil {
				q.log.Error(ctx, "dropping undecodable upload event", "error", err)
			} else if err := h(ctx, &ev); err != nil {
				if common.KindOf(err) != common.KindInvalidArgument {
					q.log.Warn(ctx, "upload event will be retried", "file_id", ev.FileID, "error", err)
					return done, nil
				}
				q.log.Error(ctx, "dropping invalid upload event", "file_id", ev.FileID, "error", err)
			}

			if err := q.ack(p.key); err != nil {
				return done, fmt.Errorf("ack upload event: %w", err)
			}
			done++
		}
	}
}

// Run drains the queue on every publish and every poll interval until ctx
// is cancelled.
func (q *Queue) Run(ctx context.Context, h Handler) error {
	t := time.NewTicker(q.poll)
	defer t.Stop()

	for {
		if _, err := q.Drain(ctx, h); err != nil && ctx.Err() == nil {
			q.log.Error(ctx, "event queue drain failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		case <-q.wake:
		}
	}
}
