// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/efchatnet/efmsg/backend/middleware"
	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/storage"
)

const defaultPageSize = 10

// MessageHandler serves message history. Sending happens over the socket.
type MessageHandler struct {
	store    storage.Store
	validate *validator.Validate
	log      zerolog.Logger
}

func NewMessageHandler(store storage.Store, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		store:    store,
		validate: validator.New(),
		log:      log.With().Str("component", "messages").Logger(),
	}
}

type pageQuery struct {
	Page     int `validate:"min=1"`
	PageSize int `validate:"min=1,max=50"`
}

type pagination struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}

func parsePage(r *http.Request) (pageQuery, error) {
	q := pageQuery{Page: 1, PageSize: defaultPageSize}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid page %q", v)
		}
		q.Page = n
	}
	if v := r.URL.Query().Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid pageSize %q", v)
		}
		q.PageSize = n
	}
	return q, nil
}

// ListMessages handles GET /api/dm/messages?container=&page=&pageSize=
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r)

	q, err := parsePage(r)
	if err == nil {
		err = h.validate.Struct(q)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid paging: %v", err), http.StatusBadRequest)
		return
	}

	params := models.MessageParams{
		Username:  username,
		Container: models.ParseContainer(r.URL.Query().Get("container")),
		PageIndex: q.Page,
		PageSize:  q.PageSize,
	}

	var (
		items []models.Message
		total int
	)
	err = storage.WithUnitOfWork(r.Context(), h.store, func(uow storage.UnitOfWork) error {
		var err error
		items, total, err = uow.MessagesForUser(r.Context(), params)
		return err
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	page := models.NewMessagePage(items, params, total)
	header, _ := json.Marshal(pagination{
		CurrentPage:  page.PageIndex,
		ItemsPerPage: page.PageSize,
		TotalItems:   page.TotalCount,
		TotalPages:   page.TotalPages,
	})
	w.Header().Set("Pagination", string(header))
	writeJSON(w, http.StatusOK, page.Items)
}

// GetMessage handles GET /api/dm/messages/{id}. Only participants who have
// not deleted their copy can see it.
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r)
	id := mux.Vars(r)["id"]

	var msg *models.Message
	err := storage.WithUnitOfWork(r.Context(), h.store, func(uow storage.UnitOfWork) error {
		var err error
		if msg, err = uow.GetMessage(r.Context(), id); err != nil {
			return err
		}
		switch {
		case !msg.IsParticipant(username):
			return models.ErrForbidden
		case msg.DeletedBy(username):
			return storage.ErrNotFound
		}
		return nil
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// DeleteMessage handles DELETE /api/dm/messages/{id}
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r)
	id := mux.Vars(r)["id"]

	removed, err := storage.DeleteMessageForUser(r.Context(), h.store, id, username)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.log.Debug().Str("message_id", id).Str("username", username).Bool("removed", removed).Msg("message deleted")

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "deleted",
		"removed": removed,
	})
}

// GetThread handles GET /api/dm/thread/{username}. Unlike joining over the
// socket, browsing the thread here leaves read state alone.
func (h *MessageHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r)
	other := models.NormalizeUsername(mux.Vars(r)["username"])
	if other == username {
		writeError(w, h.log, models.ErrSelfSend)
		return
	}

	var thread []models.Message
	err := storage.WithUnitOfWork(r.Context(), h.store, func(uow storage.UnitOfWork) error {
		if _, err := uow.GetUser(r.Context(), other); err != nil {
			return userLookup(err)
		}
		var err error
		thread, err = uow.MessageThread(r.Context(), username, other)
		return err
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if thread == nil {
		thread = []models.Message{}
	}
	writeJSON(w, http.StatusOK, thread)
}
