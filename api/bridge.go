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

	"github.com/blinklabs-io/deedbridge/bridge"
	"github.com/blinklabs-io/deedbridge/common"
	"github.com/go-chi/chi/v5"
)

type messageStatusResponse struct {
	MessageID string `json:"messageId"`
	Processed bool   `json:"processed"`
}

type registerAddressRequest struct {
	ForeignAddress string `json:"foreignAddress"`
}

type updateCustodianRequest struct {
	NewCustodian common.Address `json:"newCustodian"`
}

type custodianResponse struct {
	ForeignAddress string         `json:"foreignAddress"`
	Custodian      common.Address `json:"custodian"`
}

func (a *API) mountBridge(r chi.Router) {
	r.Route("/bridge", func(r chi.Router) {
		r.Post("/messages", a.handleProcessMessage)
		r.Get("/messages/{messageID}", a.handleGetMessage)
		r.Get("/messages/{messageID}/status", a.handleMessageStatus)
		r.Get("/properties/{propertyID}/stage-change", a.handleGetPendingStageChange)
		r.Post("/properties/{propertyID}/stage-change/retry", a.handleRetryStageChange)
		r.Get("/properties/{propertyID}/deposits/{custodian}", a.handleGetDeposit)
		r.Post("/custodians", a.handleRegisterAddress)
		r.Put("/custodians", a.handleUpdateCustodian)
		r.Get("/custodians/{foreignAddress}", a.handleGetCustodian)
	})
}

// handleProcessMessage submits an inbound message. A message without an ID
// gets the one derived from its foreign transaction hash.
func (a *API) handleProcessMessage(w http.ResponseWriter, r *http.Request) {
	var msg bridge.Message
	if err := decodeJSON(r, &msg); err != nil {
		a.writeError(w, r, err)
		return
	}
	if msg.ID == "" && msg.ForeignTxHash != "" {
		msg.ID = bridge.DeriveMessageID(msg.ForeignTxHash, msg.Type)
	}
	result, err := a.services.Bridge.ProcessMessage(
		r.Context(),
		callerFrom(r),
		&msg,
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := a.services.Bridge.GetMessage(
		r.Context(),
		chi.URLParam(r, "messageID"),
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (a *API) handleMessageStatus(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")
	processed, err := a.services.Bridge.IsMessageProcessed(r.Context(), messageID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageStatusResponse{
		MessageID: messageID,
		Processed: processed,
	})
}

func (a *API) handleGetPendingStageChange(w http.ResponseWriter, r *http.Request) {
	pending, err := a.services.Bridge.GetPendingStageChange(
		r.Context(),
		chi.URLParam(r, "propertyID"),
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (a *API) handleRetryStageChange(w http.ResponseWriter, r *http.Request) {
	pending, err := a.services.Bridge.RetryStageChangeNotification(
		r.Context(),
		chi.URLParam(r, "propertyID"),
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (a *API) handleGetDeposit(w http.ResponseWriter, r *http.Request) {
	deposit, err := a.services.Bridge.GetDeposit(
		r.Context(),
		chi.URLParam(r, "propertyID"),
		common.NewAddress(chi.URLParam(r, "custodian")),
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

func (a *API) handleRegisterAddress(w http.ResponseWriter, r *http.Request) {
	var req registerAddressRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	caller := callerFrom(r)
	if err := a.services.Bridge.RegisterAddress(
		r.Context(),
		caller,
		req.ForeignAddress,
	); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, custodianResponse{
		ForeignAddress: req.ForeignAddress,
		Custodian:      caller,
	})
}

func (a *API) handleUpdateCustodian(w http.ResponseWriter, r *http.Request) {
	var req updateCustodianRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.services.Bridge.UpdateCustodian(
		r.Context(),
		callerFrom(r),
		common.NewAddress(req.NewCustodian.String()),
	); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGetCustodian(w http.ResponseWriter, r *http.Request) {
	foreignAddress := chi.URLParam(r, "foreignAddress")
	custodian, err := a.services.Bridge.GetCustodian(r.Context(), foreignAddress)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, custodianResponse{
		ForeignAddress: foreignAddress,
		Custodian:      custodian,
	})
}
