package repositories

import (
	stderrors "errors"
	"pair-chat/contract"
	"pair-chat/domain"
	"pair-chat/errors"

	"github.com/dgraph-io/badger/v4"
)

type ProfileRepository struct {
	db *badger.DB
}

var _ contract.IProfileRepository = (*ProfileRepository)(nil)

func NewProfileRepository(db *badger.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func profileKey(userID domain.UserID) []byte {
	return []byte(profilePrefix + string(userID))
}

// GetProfile returns exists=false, without error, for an unknown identity.
func (r *ProfileRepository) GetProfile(userID domain.UserID) (domain.Profile, bool, error) {
	var profile domain.Profile
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			profile, err = decodeProfile(val)
			return err
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Profile{}, false, nil
	}
	if err != nil {
		return domain.Profile{}, false, err
	}
	return profile, true, nil
}

// CreateProfile fails with ErrProfileExists when the identity already has one.
func (r *ProfileRepository) CreateProfile(profile domain.Profile) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key := profileKey(profile.ID)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrProfileExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, encodeProfile(profile))
	})
}

// SaveProfile overwrites the profile of an identity.
func (r *ProfileRepository) SaveProfile(profile domain.Profile) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(profile.ID), encodeProfile(profile))
	})
}
