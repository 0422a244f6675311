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

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/governance"
	"github.com/go-chi/chi/v5"
)

// proposalRequest creates a proposal. The payload is given either as raw
// CBOR in Data or as the JSON fields of Payload.
type proposalRequest struct {
	Type        common.ProposalType `json:"type"`
	Description string              `json:"description"`
	Data        []byte              `json:"data,omitempty"`
	Payload     *proposalPayload    `json:"payload,omitempty"`
}

type proposalPayload struct {
	SalePrice     uint64        `json:"salePrice,omitempty"`
	Buyer         string        `json:"buyer,omitempty"`
	PurchasePrice uint64        `json:"purchasePrice,omitempty"`
	Seller        string        `json:"seller,omitempty"`
	Name          string        `json:"name,omitempty"`
	Value         uint64        `json:"value,omitempty"`
	NewManager    string        `json:"newManager,omitempty"`
	NAV           uint64        `json:"nav,omitempty"`
	Target        *common.Stage `json:"target,omitempty"`
}

type voteRequest struct {
	Support bool `json:"support"`
}

func (req *proposalRequest) payloadData() ([]byte, error) {
	if req.Payload == nil {
		return req.Data, nil
	}
	if len(req.Data) > 0 {
		return nil, fmt.Errorf(
			"%w: data and payload are mutually exclusive",
			common.ErrInvalidParameter,
		)
	}
	p := req.Payload
	var payload any
	switch req.Type {
	case common.ProposalTypePropertyLiquidation:
		payload = &governance.LiquidationTerms{
			SalePrice: p.SalePrice,
			Buyer:     p.Buyer,
		}
	case common.ProposalTypePropertyPurchase:
		payload = &governance.PurchaseTerms{
			PurchasePrice: p.PurchasePrice,
			Seller:        p.Seller,
		}
	case common.ProposalTypeThresholdUpdate:
		payload = &governance.ThresholdChange{Name: p.Name, Value: p.Value}
	case common.ProposalTypeManagementChange:
		payload = &governance.ManagementChange{NewManager: p.NewManager}
	case common.ProposalTypeNAVUpdate:
		payload = &governance.NAVChange{NAV: p.NAV}
	case common.ProposalTypePropertyStageChange:
		if p.Target == nil {
			return nil, fmt.Errorf(
				"%w: target stage is required",
				common.ErrInvalidParameter,
			)
		}
		payload = &governance.StageChange{Target: uint8(*p.Target)}
	default:
		return nil, fmt.Errorf(
			"%w: %s proposals carry no payload",
			common.ErrInvalidParameter,
			req.Type,
		)
	}
	return governance.EncodePayload(payload)
}

func (a *API) mountProposals(r chi.Router) {
	r.Route("/proposals", func(r chi.Router) {
		r.Get("/", a.handleListProposals)
		r.Post("/", a.handleCreateProposal)
		r.Route("/{proposalID}", func(r chi.Router) {
			r.Get("/", a.handleGetProposal)
			r.Post("/votes", a.handleVote)
			r.Get("/votes/{voter}", a.handleGetVote)
			r.Post("/execute", a.handleExecuteProposal)
		})
	})
}

func (a *API) handleListProposals(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var status *common.ProposalStatus
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		var tmpStatus common.ProposalStatus
		if err := tmpStatus.UnmarshalText([]byte(statusParam)); err != nil {
			a.writeError(w, r, err)
			return
		}
		status = &tmpStatus
	}
	proposals, err := a.services.DAO.GetProposals(
		r.Context(),
		chi.URLParam(r, "propertyID"),
		status,
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writePage(w, proposals, params)
}

func (a *API) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req proposalRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	data, err := req.payloadData()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	proposal, err := a.services.DAO.CreateProposal(
		r.Context(),
		callerFrom(r),
		chi.URLParam(r, "propertyID"),
		req.Type,
		req.Description,
		data,
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

func (a *API) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, err := uintParam(r, "proposalID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	proposal, err := a.services.DAO.GetProposal(
		r.Context(),
		chi.URLParam(r, "propertyID"),
		proposalID,
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (a *API) handleVote(w http.ResponseWriter, r *http.Request) {
	proposalID, err := uintParam(r, "proposalID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	vote, err := a.services.DAO.Vote(
		r.Context(),
		callerFrom(r),
		chi.URLParam(r, "propertyID"),
		proposalID,
		req.Support,
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vote)
}

func (a *API) handleGetVote(w http.ResponseWriter, r *http.Request) {
	proposalID, err := uintParam(r, "proposalID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	vote, err := a.services.DAO.GetVote(
		r.Context(),
		chi.URLParam(r, "propertyID"),
		proposalID,
		common.NewAddress(chi.URLParam(r, "voter")),
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vote)
}

func (a *API) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, err := uintParam(r, "proposalID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	result, err := a.services.DAO.ExecuteProposal(
		r.Context(),
		callerFrom(r),
		chi.URLParam(r, "propertyID"),
		proposalID,
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
