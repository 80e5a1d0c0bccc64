// Daystreak Core
// Copyright (c) 2026 The Daystreak Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Daystreak Core.
//
// Daystreak Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Daystreak Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Daystreak Core.  If not, see <http://www.gnu.org/licenses/>.

// Package api exposes the core to UI consumers over a JSON-RPC websocket
// (with notification streaming) and plain HTTP POST.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/DaystreakProject/daystreak-core/pkg/api/methods"
	"github.com/DaystreakProject/daystreak-core/pkg/api/models"
	"github.com/DaystreakProject/daystreak-core/pkg/config"
	"github.com/DaystreakProject/daystreak-core/pkg/rewards"
	"github.com/DaystreakProject/daystreak-core/pkg/timesync"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

var (
	JSONRPCErrorParseError     = models.ErrorObject{Code: -32700, Message: "parse error"}
	JSONRPCErrorInvalidRequest = models.ErrorObject{Code: -32600, Message: "invalid request"}
	JSONRPCErrorMethodNotFound = models.ErrorObject{Code: -32601, Message: "method not found"}
	JSONRPCErrorServerError    = models.ErrorObject{Code: -32000, Message: "server error"}
)

var methodMap = map[string]methods.Handler{
	models.MethodVersion:          methods.HandleVersion,
	models.MethodClockStatus:      methods.HandleClockStatus,
	models.MethodClockOffsetSet:   methods.HandleClockOffsetSet,
	models.MethodClockOffsetReset: methods.HandleClockOffsetReset,
	models.MethodRewardsStatus:    methods.HandleRewardsStatus,
	models.MethodRewardsClaim:     methods.HandleRewardsClaim,
	models.MethodRewardsReset:     methods.HandleRewardsReset,
}

// Env is the shared state handed to method handlers.
type Env struct {
	Clock    *timesync.Clock
	Registry *rewards.Registry
	Config   *config.Instance
}

func handleRequest(env Env, req models.RequestObject) (any, *models.ErrorObject) {
	fn, ok := methodMap[req.Method]
	if !ok {
		return nil, &JSONRPCErrorMethodNotFound
	}

	log.Debug().Str("method", req.Method).Msg("handling API request")

	result, err := fn(methods.RequestEnv{
		Clock:    env.Clock,
		Registry: env.Registry,
		Config:   env.Config,
		Params:   req.Params,
		ID:       *req.ID,
	})
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Msg("API method failed")
		return nil, &models.ErrorObject{
			Code:    JSONRPCErrorServerError.Code,
			Message: err.Error(),
		}
	}

	return result, nil
}

func makeResponse(id uuid.UUID, result any, errObj *models.ErrorObject) ([]byte, error) {
	resp := models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
		Error:   errObj,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("error marshalling response: %w", err)
	}
	return data, nil
}

func sendWSResponse(session *melody.Session, id uuid.UUID, result any, errObj *models.ErrorObject) {
	data, err := makeResponse(id, result, errObj)
	if err != nil {
		log.Error().Err(err).Msg("error marshalling websocket response")
		return
	}
	if err := session.Write(data); err != nil {
		log.Error().Err(err).Msg("error writing websocket response")
	}
}

func parseRequest(msg []byte) (models.RequestObject, *models.ErrorObject) {
	if !json.Valid(msg) {
		return models.RequestObject{}, &JSONRPCErrorParseError
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil {
		return models.RequestObject{}, &JSONRPCErrorParseError
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		return models.RequestObject{}, &JSONRPCErrorInvalidRequest
	}

	return req, nil
}

func handleWSMessage(env Env) func(session *melody.Session, msg []byte) {
	return func(session *melody.Session, msg []byte) {
		// ping command for heartbeat operation
		if bytes.Equal(msg, []byte("ping")) {
			if err := session.Write([]byte("pong")); err != nil {
				log.Error().Err(err).Msg("sending pong")
			}
			return
		}

		req, errObj := parseRequest(msg)
		if errObj != nil {
			sendWSResponse(session, uuid.Nil, nil, errObj)
			return
		}

		if req.ID == nil {
			// Request is itself a notification, nothing to respond to.
			log.Info().Str("method", req.Method).Msg("received notification, ignoring")
			return
		}

		result, respErr := handleRequest(env, req)
		sendWSResponse(session, *req.ID, result, respErr)
	}
}

func handlePost(env Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "error reading request body", http.StatusInternalServerError)
			return
		}

		writeResponse := func(id uuid.UUID, result any, errObj *models.ErrorObject) {
			data, err := makeResponse(id, result, errObj)
			if err != nil {
				http.Error(w, "error marshalling response", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if _, err := w.Write(data); err != nil {
				log.Error().Err(err).Msg("error writing POST response")
			}
		}

		req, errObj := parseRequest(body)
		if errObj != nil {
			writeResponse(uuid.Nil, nil, errObj)
			return
		}
		if req.ID == nil {
			writeResponse(uuid.Nil, nil, &JSONRPCErrorInvalidRequest)
			return
		}

		result, respErr := handleRequest(env, req)
		writeResponse(*req.ID, result, respErr)
	}
}

func broadcastNotifications(
	ctx context.Context,
	session *melody.Melody,
	notifs <-chan models.Notification,
) {
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("stopping API notification broadcast")
			return
		case notif, ok := <-notifs:
			if !ok {
				return
			}

			data, err := json.Marshal(models.NotificationObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}

			if err := session.Broadcast(data); err != nil {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// NewRouter builds the API router. Exposed separately from Start for tests.
func NewRouter(ctx context.Context, env Env, notifs <-chan models.Notification) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(middleware.Timeout(config.APIRequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*", "capacitor://*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	session := melody.New()
	session.Upgrader.CheckOrigin = func(_ *http.Request) bool { return true }
	session.HandleMessage(handleWSMessage(env))
	go broadcastNotifications(ctx, session, notifs)

	r.Get("/api/v1", func(w http.ResponseWriter, r *http.Request) {
		if err := session.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})
	r.Post("/api/v1", handlePost(env))

	return r
}

// Start runs the API server until the context is cancelled.
func Start(ctx context.Context, env Env, notifs <-chan models.Notification) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(env.Config.APIPort()),
		Handler:           NewRouter(ctx, env, notifs),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down API server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting API server: %w", err)
		}
		return nil
	}
}
