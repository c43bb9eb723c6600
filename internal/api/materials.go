package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgertrace/custodia/internal/custody"
	"github.com/ledgertrace/custodia/internal/mirror"
)

func (s *Server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.materials.ListMaterials(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if materials == nil {
		materials = []mirror.Material{}
	}
	writeJSON(w, http.StatusOK, materials)
}

func (s *Server) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req custody.CreateMaterialRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := s.materials.CreateMaterial(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGetMaterial(w http.ResponseWriter, r *http.Request) {
	m, err := s.materials.GetMaterial(r.Context(), chi.URLParam(r, "materialID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMaterialStatus(w http.ResponseWriter, r *http.Request) {
	m, err := s.materials.GetMaterial(r.Context(), chi.URLParam(r, "materialID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(m.Status)})
}

func (s *Server) handleTransferMaterial(w http.ResponseWriter, r *http.Request) {
	var req custody.TransferMaterialRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.MaterialID = chi.URLParam(r, "materialID")

	m, err := s.materials.TransferMaterial(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMaterialHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.materials.History(r.Context(), chi.URLParam(r, "materialID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleMaterialRoute(w http.ResponseWriter, r *http.Request) {
	fc, err := s.materials.Route(r.Context(), chi.URLParam(r, "materialID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// handleExportCSV renders one material document as a single-row CSV report.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	materialID := chi.URLParam(r, "materialID")
	m, err := s.materials.GetMaterial(r.Context(), materialID)
	if err != nil {
		writeError(w, err)
		return
	}

	metadataJSON, err := json.Marshal(m.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment;filename=%s.csv", materialID))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"materialId", "description", "currentHolder", "lastSequence", "status", "txHash", "metadata"})
	_ = cw.Write([]string{
		m.MaterialID,
		m.Description,
		m.CurrentHolder,
		strconv.FormatInt(m.LastSequence, 10),
		string(m.Status),
		m.TxHash,
		string(metadataJSON),
	})
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("write csv export", "material_id", materialID, "error", err)
	}
}
