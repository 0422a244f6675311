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
	"fmt"
	"net/http"
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/governance"
	"github.com/go-chi/chi/v5"
)

type registerPropertyRequest struct {
	ID              string         `json:"id"`
	Manager         common.Address `json:"manager"`
	FundingTarget   uint64         `json:"fundingTarget"`
	FundingDeadline time.Time      `json:"fundingDeadline"`
}

type fundingTargetRequest struct {
	FundingTarget   uint64    `json:"fundingTarget"`
	FundingDeadline time.Time `json:"fundingDeadline"`
}

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

type stageResponse struct {
	PropertyID string       `json:"propertyId"`
	Stage      common.Stage `json:"stage"`
}

type sharesResponse struct {
	PropertyID  string         `json:"propertyId"`
	Holder      common.Address `json:"holder"`
	Balance     uint64         `json:"balance"`
	TotalSupply uint64         `json:"totalSupply"`
}

func (a *API) mountGovernance(r chi.Router) {
	r.Route("/properties", func(r chi.Router) {
		r.Get("/", a.handleListProperties)
		r.Post("/", a.handleRegisterProperty)
		r.Route("/{propertyID}", func(r chi.Router) {
			r.Get("/", a.handleGetProperty)
			r.Get("/stage", a.handleGetStage)
			r.Put("/funding", a.handleSetFundingTarget)
			r.Post("/investments", a.handleUpdateTotalInvested)
			r.Post("/revert", a.handleRevert)
			r.Post("/liquidation", a.handleCompleteLiquidation)
			r.Get("/thresholds", a.handleGetThresholds)
			if a.services.Vault != nil {
				r.Get("/shares/{holder}", a.handleGetShares)
			}
			a.mountProposals(r)
		})
	})
}

func (a *API) handleListProperties(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	props, err := a.services.DAO.GetProperties(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writePage(w, props, params)
}

func (a *API) handleRegisterProperty(w http.ResponseWriter, r *http.Request) {
	var req registerPropertyRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	prop, err := a.services.DAO.RegisterProperty(
		r.Context(),
		callerFrom(r),
		governance.PropertyParams{
			ID:              req.ID,
			Manager:         common.NewAddress(req.Manager.String()),
			FundingTarget:   req.FundingTarget,
			FundingDeadline: req.FundingDeadline,
		},
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, prop)
}

func (a *API) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	prop, err := a.services.DAO.GetProperty(
		r.Context(),
		chi.URLParam(r, "propertyID"),
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (a *API) handleGetStage(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	stage, err := a.services.DAO.GetCurrentStage(r.Context(), propertyID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stageResponse{
		PropertyID: propertyID,
		Stage:      stage,
	})
}

func (a *API) handleSetFundingTarget(w http.ResponseWriter, r *http.Request) {
	var req fundingTargetRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	propertyID := chi.URLParam(r, "propertyID")
	if err := a.services.DAO.SetFundingTarget(
		r.Context(),
		callerFrom(r),
		propertyID,
		req.FundingTarget,
		req.FundingDeadline,
	); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.handleGetProperty(w, r)
}

func (a *API) handleUpdateTotalInvested(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	result, err := a.services.DAO.UpdateTotalInvested(
		r.Context(),
		callerFrom(r),
		chi.URLParam(r, "propertyID"),
		req.Amount,
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleRevert(w http.ResponseWriter, r *http.Request) {
	if err := a.services.DAO.RevertToOpenToFund(
		r.Context(),
		callerFrom(r),
		chi.URLParam(r, "propertyID"),
	); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.handleGetProperty(w, r)
}

func (a *API) handleCompleteLiquidation(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.services.DAO.CompleteLiquidation(
		r.Context(),
		callerFrom(r),
		chi.URLParam(r, "propertyID"),
		req.Amount,
	); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.handleGetProperty(w, r)
}

func (a *API) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	// Unknown properties have no thresholds, report them as missing
	if _, err := a.services.DAO.GetProperty(r.Context(), propertyID); err != nil {
		a.writeError(w, r, err)
		return
	}
	thresholds, err := a.services.DAO.Thresholds().All(r.Context(), propertyID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thresholds)
}

func (a *API) handleGetShares(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	holder := common.NewAddress(chi.URLParam(r, "holder"))
	if _, err := a.services.DAO.GetProperty(r.Context(), propertyID); err != nil {
		a.writeError(w, r, err)
		return
	}
	balance, err := a.services.Vault.BalanceOf(propertyID, holder, nil)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("failed to get share balance: %w", err))
		return
	}
	supply, err := a.services.Vault.TotalSupply(propertyID, nil)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("failed to get total supply: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, sharesResponse{
		PropertyID:  propertyID,
		Holder:      holder,
		Balance:     balance,
		TotalSupply: supply,
	})
}
