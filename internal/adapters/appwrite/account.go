package appwrite

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"restate_api/internal/domain"
)

// Account implements domain.Identity over the Appwrite account API.
// Sessions are not held on the client; the secret travels per call.
type Account struct {
	c *Client
}

type sessionResponse struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
	Expire string `json:"expire"`
}

func (a *Account) Login(ctx context.Context, email, password string) (domain.Session, error) {
	body := map[string]any{"email": email, "password": password}
	var sr sessionResponse
	if err := a.c.do(ctx, http.MethodPost, "/account/sessions/email", "", body, &sr); err != nil {
		return domain.Session{}, err
	}
	s := domain.Session{ID: sr.ID, UserID: sr.UserID, Secret: sr.Secret}
	if t, err := time.Parse(time.RFC3339Nano, sr.Expire); err == nil {
		s.ExpiresAt = t
	}
	return s, nil
}

func (a *Account) Logout(ctx context.Context, sessionSecret string) error {
	return a.c.do(ctx, http.MethodDelete, "/account/sessions/current", sessionSecret, nil, nil)
}

func (a *Account) CurrentUser(ctx context.Context, sessionSecret string) (*domain.UserProfile, error) {
	var out struct {
		ID    string `json:"$id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	err := a.c.do(ctx, http.MethodGet, "/account", sessionSecret, nil, &out)
	if err != nil {
		// no live session is a normal answer, not a failure
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.UserProfile{
		ID:     out.ID,
		Name:   out.Name,
		Email:  out.Email,
		Avatar: a.initialsAvatarURL(out.Name),
	}, nil
}

// initialsAvatarURL points at Appwrite's generated initials avatar, the
// same image the mobile client renders next to the profile name.
func (a *Account) initialsAvatarURL(name string) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("width", "100")
	q.Set("height", "100")
	q.Set("project", a.c.project)
	return a.c.base + "/avatars/initials?" + q.Encode()
}
