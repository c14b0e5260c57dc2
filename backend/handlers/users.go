// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/efchatnet/efmsg/backend/middleware"
	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/presence"
	"github.com/efchatnet/efmsg/backend/storage"
)

type UserHandler struct {
	store    storage.Store
	registry *presence.Registry
	activity storage.ActivityTracker
	validate *validator.Validate
	log      zerolog.Logger
}

func NewUserHandler(store storage.Store, registry *presence.Registry, activity storage.ActivityTracker,
	log zerolog.Logger) *UserHandler {
	return &UserHandler{
		store:    store,
		registry: registry,
		activity: activity,
		validate: validator.New(),
		log:      log.With().Str("component", "users").Logger(),
	}
}

type updateMeRequest struct {
	KnownAs string `json:"knownAs" validate:"max=64"`
}

// UpdateMe handles PUT /api/dm/users/me. An empty knownAs keeps the
// current display name.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r)

	var req updateMeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "knownAs is too long", http.StatusBadRequest)
		return
	}

	var user *models.User
	err := storage.WithUnitOfWork(r.Context(), h.store, func(uow storage.UnitOfWork) error {
		var err error
		user, err = uow.UpsertUser(r.Context(), username, req.KnownAs)
		return err
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type presenceResponse struct {
	Username   string     `json:"username"`
	Online     bool       `json:"online"`
	LastActive *time.Time `json:"lastActive,omitempty"`
}

// GetPresence handles GET /api/dm/users/{username}/presence
func (h *UserHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	username := models.NormalizeUsername(mux.Vars(r)["username"])

	err := storage.WithUnitOfWork(r.Context(), h.store, func(uow storage.UnitOfWork) error {
		_, err := uow.GetUser(r.Context(), username)
		return userLookup(err)
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	resp := presenceResponse{Username: username, Online: h.registry.IsOnline(username)}
	last, ok, err := h.activity.LastActive(r.Context(), username)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if ok {
		resp.LastActive = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

// Online handles GET /api/dm/online
func (h *UserHandler) Online(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"users": h.registry.OnlineUsers()})
}

func userLookup(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return models.ErrUserNotFound
	}
	return err
}
