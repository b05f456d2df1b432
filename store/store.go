// Package store persists the message log of a process and the memory after
// each message in LevelDB, so a process can resume from its head or be
// rewound to any handled message.
package store

import (
	"encoding/json"
	"errors"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/ethereum/go-ethereum/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/rony4d/go-ario/inter"
)

var (
	ErrNotFound = errors.New("not found")
	ErrSequence = errors.New("sequence must follow the head")
)

var (
	headKey        = []byte("h")
	snapshotPrefix = []byte("s")
	messagePrefix  = []byte("m")
)

// Store is a sequence of (message, memory) entries numbered from 1.
// Entry 0 is the genesis memory and has no message.
type Store struct {
	db  *leveldb.DB
	log log.Logger
}

// Open opens or creates a store in dir.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, err
	}
	return wrap(db), nil
}

// OpenMemory opens a store that lives only in memory.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return wrap(db), nil
}

func wrap(db *leveldb.DB) *Store {
	return &Store{db: db, log: log.New("module", "store")}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(prefix []byte, seq uint64) []byte {
	return append(append([]byte(nil), prefix...), bigendian.Uint64ToBytes(seq)...)
}

// Head returns the sequence of the latest entry.
func (s *Store) Head() (uint64, error) {
	b, err := s.db.Get(headKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return bigendian.BytesToUint64(b), nil
}

// Init writes the genesis memory. It fails on a store that already has one.
func (s *Store) Init(memory []byte) error {
	if _, err := s.Head(); err == nil {
		return ErrSequence
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	b := new(leveldb.Batch)
	b.Put(key(snapshotPrefix, 0), memory)
	b.Put(headKey, bigendian.Uint64ToBytes(0))
	return s.db.Write(b, nil)
}

// Append stores msg and the memory it produced as the entry after the head.
func (s *Store) Append(msg inter.Message, memory []byte) (uint64, error) {
	head, err := s.Head()
	if err != nil {
		return 0, err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}
	seq := head + 1
	b := new(leveldb.Batch)
	b.Put(key(messagePrefix, seq), raw)
	b.Put(key(snapshotPrefix, seq), memory)
	b.Put(headKey, bigendian.Uint64ToBytes(seq))
	if err := s.db.Write(b, nil); err != nil {
		return 0, err
	}
	s.log.Debug("Appended message", "seq", seq, "id", msg.ID, "size", len(memory))
	return seq, nil
}

// Memory returns the memory after entry seq.
func (s *Store) Memory(seq uint64) ([]byte, error) {
	b, err := s.db.Get(key(snapshotPrefix, seq), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

// Latest returns the head and its memory.
func (s *Store) Latest() (uint64, []byte, error) {
	head, err := s.Head()
	if err != nil {
		return 0, nil, err
	}
	memory, err := s.Memory(head)
	return head, memory, err
}

// Message returns the message of entry seq.
func (s *Store) Message(seq uint64) (inter.Message, error) {
	var msg inter.Message
	b, err := s.db.Get(key(messagePrefix, seq), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return msg, ErrNotFound
	}
	if err != nil {
		return msg, err
	}
	err = json.Unmarshal(b, &msg)
	return msg, err
}

// Messages calls fn for every message after seq from, in order, stopping at
// the first error.
func (s *Store) Messages(from uint64, fn func(seq uint64, msg inter.Message) error) error {
	it := s.db.NewIterator(&util.Range{
		Start: key(messagePrefix, from+1),
		Limit: util.BytesPrefix(messagePrefix).Limit,
	}, nil)
	defer it.Release()
	for it.Next() {
		var msg inter.Message
		if err := json.Unmarshal(it.Value(), &msg); err != nil {
			return err
		}
		if err := fn(bigendian.BytesToUint64(it.Key()[len(messagePrefix):]), msg); err != nil {
			return err
		}
	}
	return it.Error()
}

// Rewind drops every entry after seq and moves the head back to it.
func (s *Store) Rewind(seq uint64) error {
	head, err := s.Head()
	if err != nil {
		return err
	}
	if seq > head {
		return ErrSequence
	}
	b := new(leveldb.Batch)
	for i := seq + 1; i <= head; i++ {
		b.Delete(key(messagePrefix, i))
		b.Delete(key(snapshotPrefix, i))
	}
	b.Put(headKey, bigendian.Uint64ToBytes(seq))
	s.log.Info("Rewound store", "from", head, "to", seq)
	return s.db.Write(b, nil)
}
