package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgertrace/custodia/internal/custody"
)

func (s *Server) handleCreateWaste(w http.ResponseWriter, r *http.Request) {
	var req custody.CreateWasteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	record, err := s.waste.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleGetWaste(w http.ResponseWriter, r *http.Request) {
	record, err := s.waste.Get(r.Context(), chi.URLParam(r, "wasteID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleTransferWaste(w http.ResponseWriter, r *http.Request) {
	var req custody.TransferWasteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.WasteID = chi.URLParam(r, "wasteID")

	record, err := s.waste.Transfer(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeliverWaste(w http.ResponseWriter, r *http.Request) {
	record, err := s.waste.Deliver(r.Context(), chi.URLParam(r, "wasteID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDisposeWaste(w http.ResponseWriter, r *http.Request) {
	record, err := s.waste.Dispose(r.Context(), chi.URLParam(r, "wasteID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleWasteHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.waste.History(r.Context(), chi.URLParam(r, "wasteID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
