package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"restate_api/internal/app"
	"restate_api/internal/domain"
	"restate_api/internal/fetch"
)

type Handlers struct {
	Q        *app.PropertyService
	Identity domain.Identity
	// Featured is a shared controller kept warm by the api binary; the
	// handler serves its snapshot and only queries live on a cold start.
	Featured *fetch.Controller[int, []domain.Property]
}

// Categories mirrors the filter chips of the mobile client; "All" is the
// no-restriction sentinel.
var Categories = []string{
	domain.FilterAll, "House", "Condos", "Duplexes", "Studios", "Villa", "Apartments", "Townhomes",
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/categories", h.listCategories)
	s.mux.Get("/v1/properties", h.listProperties)
	s.mux.Get("/v1/properties/featured", h.featuredProperties)
	s.mux.Get("/v1/properties/{id}", h.getProperty)
	s.mux.Post("/v1/account/sessions", h.login)
	s.mux.Delete("/v1/account/sessions/current", h.logout)
	s.mux.Get("/v1/account/me", h.me)
}

/********** response shapes **********/

type propertyDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Address   string    `json:"address"`
	Price     float64   `json:"price"`
	Rating    float64   `json:"rating"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type agentDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type reviewDTO struct {
	ID     string  `json:"id"`
	Author string  `json:"author"`
	Avatar string  `json:"avatar,omitempty"`
	Text   string  `json:"text"`
	Rating float64 `json:"rating"`
}

type detailDTO struct {
	propertyDTO
	Description string      `json:"description,omitempty"`
	Area        float64     `json:"area,omitempty"`
	Bedrooms    int         `json:"bedrooms,omitempty"`
	Bathrooms   int         `json:"bathrooms,omitempty"`
	Facilities  []string    `json:"facilities,omitempty"`
	Agent       *agentDTO   `json:"agent"`
	Gallery     []string    `json:"gallery"`
	Reviews     []reviewDTO `json:"reviews"`
}

func toPropertyDTO(p domain.Property) propertyDTO {
	return propertyDTO{
		ID: p.ID, Name: p.Name, Type: p.Type, Address: p.Address,
		Price: p.Price, Rating: p.Rating, Image: p.Image, CreatedAt: p.CreatedAt,
	}
}

func toDetailDTO(pd domain.PropertyDetail) detailDTO {
	d := detailDTO{
		propertyDTO: toPropertyDTO(pd.Property),
		Description: pd.Description,
		Area:        pd.Area,
		Bedrooms:    pd.Bedrooms,
		Bathrooms:   pd.Bathrooms,
		Facilities:  pd.Facilities,
		Gallery:     []string{},
		Reviews:     []reviewDTO{},
	}
	if pd.Agent != nil {
		d.Agent = &agentDTO{ID: pd.Agent.ID, Name: pd.Agent.Name, Email: pd.Agent.Email, Avatar: pd.Agent.Avatar}
	}
	for _, g := range pd.Gallery {
		d.Gallery = append(d.Gallery, g.Image)
	}
	for _, rv := range pd.Reviews {
		d.Reviews = append(d.Reviews, reviewDTO{ID: rv.ID, Author: rv.Author, Avatar: rv.Avatar, Text: rv.Text, Rating: rv.Rating})
	}
	return d
}

/********** helpers **********/

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func sessionSecret(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

/********** handlers **********/

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, Categories)
}

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	params := domain.FetchParams{
		Filter: r.URL.Query().Get("filter"),
		Query:  r.URL.Query().Get("query"),
		Limit:  20,
	}
	if params.Filter == "" {
		params.Filter = domain.FilterAll
	}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 100 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
			return
		}
		params.Limit = l
	}

	props, err := h.Q.List(r.Context(), params)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "listing properties failed")
		return
	}
	out := make([]propertyDTO, 0, len(props))
	for _, p := range props {
		out = append(out, toPropertyDTO(p))
	}
	writeJSON(w, r, out)
}

func (h *Handlers) featuredProperties(w http.ResponseWriter, r *http.Request) {
	if h.Featured != nil {
		if st := h.Featured.Snapshot(); st.Data != nil {
			out := make([]propertyDTO, 0, len(*st.Data))
			for _, p := range *st.Data {
				out = append(out, toPropertyDTO(p))
			}
			writeJSON(w, r, out)
			return
		}
	}
	// cold start: query live
	props, err := h.Q.Featured(r.Context(), 5)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "featured properties unavailable")
		return
	}
	out := make([]propertyDTO, 0, len(props))
	for _, p := range props {
		out = append(out, toPropertyDTO(p))
	}
	writeJSON(w, r, out)
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pd, err := h.Q.Detail(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
			return
		}
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "property lookup failed")
		return
	}
	writeJSON(w, r, toDetailDTO(pd))
}

// identityReady rejects account routes when no identity provider is wired,
// which happens on self-hosted deployments without a hosted project.
func (h *Handlers) identityReady(w http.ResponseWriter) bool {
	if h.Identity == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Identity Unavailable", "no identity provider configured")
		return false
	}
	return true
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	if !h.identityReady(w) {
		return
	}
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "email and password are required")
		return
	}
	sess, err := h.Identity.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeProblem(w, http.StatusUnauthorized, "Login Failed", "invalid credentials")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sessionId": sess.ID,
		"userId":    sess.UserID,
		"secret":    sess.Secret,
		"expiresAt": sess.ExpiresAt,
	})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if !h.identityReady(w) {
		return
	}
	secret := sessionSecret(r)
	if secret == "" {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "session token required")
		return
	}
	if err := h.Identity.Logout(r.Context(), secret); err != nil {
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	if !h.identityReady(w) {
		return
	}
	secret := sessionSecret(r)
	if secret == "" {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "session token required")
		return
	}
	user, err := h.Identity.CurrentUser(r.Context(), secret)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "profile lookup failed")
		return
	}
	if user == nil {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	writeJSON(w, r, map[string]any{
		"id":     user.ID,
		"name":   user.Name,
		"email":  user.Email,
		"avatar": user.Avatar,
	})
}
