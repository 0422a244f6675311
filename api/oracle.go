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
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

type priceResponse struct {
	Asset           string          `json:"asset"`
	Price           decimal.Decimal `json:"price"`
	LastUpdated     *time.Time      `json:"lastUpdated,omitempty"`
	IsValid         bool            `json:"isValid"`
	EmergencyPaused bool            `json:"emergencyPaused"`
}

func (a *API) mountOracle(r chi.Router) {
	r.Route("/oracle/prices/{asset}", func(r chi.Router) {
		r.Get("/", a.handleGetPrice)
		r.Put("/", a.handleUpdatePrice)
		r.Put("/pause", a.handleSetEmergencyPaused)
	})
}

func (a *API) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	reading, err := a.services.Oracle.GetPrice(
		r.Context(),
		chi.URLParam(r, "asset"),
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var lastUpdated *time.Time
	if !reading.LastUpdated.IsZero() {
		lastUpdated = &reading.LastUpdated
	}
	writeJSON(w, http.StatusOK, priceResponse{
		Asset:           reading.Asset,
		Price:           reading.Price,
		LastUpdated:     lastUpdated,
		IsValid:         reading.IsValid,
		EmergencyPaused: reading.EmergencyPaused,
	})
}

func (a *API) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.services.Oracle.UpdatePrice(
		r.Context(),
		callerFrom(r),
		chi.URLParam(r, "asset"),
		req.Price,
	); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.handleGetPrice(w, r)
}

func (a *API) handleSetEmergencyPaused(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.services.Oracle.SetEmergencyPaused(
		r.Context(),
		callerFrom(r),
		chi.URLParam(r, "asset"),
		req.Paused,
	); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.handleGetPrice(w, r)
}
