package api

import "net/http"

type companyRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (s *Server) handleRegisterCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := s.companies.Register(r.Context(), req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.companies.Authenticate(r.Context(), req.Name, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": req.Name, "status": "authenticated"})
}
