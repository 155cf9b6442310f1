package gateway

import (
	"net/http"
	"pair-chat/domain"
	"pair-chat/errors"
	"time"

	"github.com/gin-gonic/gin"
)

type profileRequest struct {
	Nickname  string   `json:"nickname"`
	Age       int      `json:"age"`
	Gender    string   `json:"gender"`
	Interests []string `json:"interests"`
}

type profileResponse struct {
	ID        domain.UserID `json:"id"`
	Nickname  string        `json:"nickname"`
	Age       int           `json:"age"`
	Gender    domain.Gender `json:"gender"`
	Interests []string      `json:"interests"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (r *Router) registerProfile(c *gin.Context) {
	profile, ok := bindProfile(c)
	if !ok {
		return
	}
	created, err := r.profiles.Register(profile)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProfileResponse(created))
}

func (r *Router) updateProfile(c *gin.Context) {
	profile, ok := bindProfile(c)
	if !ok {
		return
	}
	updated, err := r.profiles.Update(profile)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(updated))
}

func (r *Router) getProfile(c *gin.Context) {
	profile, err := r.profiles.Get(identity(c))
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(profile))
}

func bindProfile(c *gin.Context) (domain.Profile, bool) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		replyError(c, errors.ErrInvalidPayload)
		return domain.Profile{}, false
	}
	return domain.Profile{
		ID:        identity(c),
		Nickname:  req.Nickname,
		Age:       req.Age,
		Gender:    domain.Gender(req.Gender),
		Interests: req.Interests,
	}, true
}

func toProfileResponse(p domain.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Nickname:  p.Nickname,
		Age:       p.Age,
		Gender:    p.Gender,
		Interests: p.Interests,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
