// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/go-chi/chi/v5"
)

// CallerHeader carries the primary-ledger address the request acts as.
// Authentication of that address happens in front of this server.
const CallerHeader = "X-Caller-Address"

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

type callerCtxKey struct{}

func callerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := common.NewAddress(r.Header.Get(CallerHeader))
		ctx := context.WithValue(r.Context(), callerCtxKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerFrom returns the request's caller address, which is empty when the
// header was not sent
func callerFrom(r *http.Request) common.Address {
	caller, _ := r.Context().Value(callerCtxKey{}).(common.Address)
	return caller
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// statusForKind maps an error kind to its HTTP status
func statusForKind(kind string) int {
	switch kind {
	case "NotAuthorized":
		return http.StatusForbidden
	case "NotFound":
		return http.StatusNotFound
	case "AlreadyProcessed", "AlreadyRegistered", "AlreadyVoted":
		return http.StatusConflict
	case "Paused", "TooSoon":
		return http.StatusConflict
	case "InvalidParameter",
		"InvalidMessage",
		"InsufficientVotingPower",
		"InsufficientShares",
		"ExtremeMovement",
		"InvalidStageTransition",
		"WrongStage",
		"StalePrice",
		"NoPendingChange",
		"StageMismatch",
		"DeadlineNotReached",
		"DeadlinePassed",
		"ProposalNotActive":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err using its error kind. Internal errors are logged
// and their text is not returned to the client.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := common.ErrorKind(err)
	status := statusForKind(kind)
	message := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		message = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

// decodeJSON reads a JSON request body into v
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", common.ErrInvalidParameter)
		}
		return fmt.Errorf("%w: malformed request body: %w", common.ErrInvalidParameter, err)
	}
	return nil
}

func uintParam(r *http.Request, name string) (uint64, error) {
	value, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf(
			"%w: %s must be an unsigned integer",
			common.ErrInvalidParameter,
			name,
		)
	}
	return value, nil
}
