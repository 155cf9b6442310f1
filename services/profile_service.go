package services

import (
	"fmt"
	"pair-chat/contract"
	"pair-chat/domain"
	"pair-chat/errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type IProfileService interface {
	Register(profile domain.Profile) (domain.Profile, error)
	Update(profile domain.Profile) (domain.Profile, error)
	Get(userID domain.UserID) (domain.Profile, error)
}

type ProfileService struct {
	repo contract.IProfileRepository
	now  func() time.Time
}

func NewProfileService(repo contract.IProfileRepository) *ProfileService {
	return &ProfileService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Register creates the profile of a new identity.
func (s *ProfileService) Register(profile domain.Profile) (domain.Profile, error) {
	profile, err := normalize(profile)
	if err != nil {
		return domain.Profile{}, err
	}
	now := s.now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if err := s.repo.CreateProfile(profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// Update replaces the editable fields of an existing profile.
func (s *ProfileService) Update(profile domain.Profile) (domain.Profile, error) {
	profile, err := normalize(profile)
	if err != nil {
		return domain.Profile{}, err
	}
	existing, err := s.Get(profile.ID)
	if err != nil {
		return domain.Profile{}, err
	}
	profile.CreatedAt = existing.CreatedAt
	profile.UpdatedAt = s.now()
	if err := s.repo.SaveProfile(profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

func (s *ProfileService) Get(userID domain.UserID) (domain.Profile, error) {
	profile, exists, err := s.repo.GetProfile(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if !exists {
		return domain.Profile{}, errors.ErrProfileNotFound
	}
	return profile, nil
}

// normalize trims free text, drops duplicated interests then validates.
func normalize(profile domain.Profile) (domain.Profile, error) {
	profile.ID = domain.UserID(strings.TrimSpace(string(profile.ID)))
	profile.Nickname = strings.TrimSpace(profile.Nickname)
	profile.Gender = domain.Gender(strings.ToLower(strings.TrimSpace(string(profile.Gender))))
	profile.Interests = lo.Uniq(lo.Map(profile.Interests, func(i string, _ int) string {
		return strings.TrimSpace(i)
	}))
	if err := validate.Struct(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %v", errors.ErrInvalidProfile, err)
	}
	return profile, nil
}
