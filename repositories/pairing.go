package repositories

import (
	"log/slog"
	"pair-chat/contract"
	"pair-chat/domain"

	"github.com/dgraph-io/badger/v4"
)

const pairingPrefix = "pairing:"

// PairingRepository keeps the last snapshot of active pairings.
type PairingRepository struct {
	db  *badger.DB
	log *slog.Logger
}

var _ contract.IPairingRepository = (*PairingRepository)(nil)

func NewPairingRepository(db *badger.DB, log *slog.Logger) *PairingRepository {
	return &PairingRepository{db: db, log: log}
}

// SaveAll replaces the previous snapshot in a single transaction.
func (r *PairingRepository) SaveAll(sessions []domain.PairingSession) error {
	return r.db.Update(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		var stale [][]byte
		prefix := []byte(pairingPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for _, session := range sessions {
			key := []byte(pairingPrefix + string(session.ConversationID))
			if err := txn.Set(key, encodePairing(session)); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAll returns the last snapshot. Undecodable entries are skipped.
func (r *PairingRepository) LoadAll() ([]domain.PairingSession, error) {
	var sessions []domain.PairingSession
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(pairingPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				session, err := decodePairing(val)
				if err != nil {
					r.log.Warn("Skipping corrupted pairing", "key", string(it.Item().Key()), "error", err)
					return nil
				}
				sessions = append(sessions, session)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return sessions, err
}
