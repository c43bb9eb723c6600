package custody

import "encoding/json"

// Request structs validated at the boundary before any ledger contact.
// Validation failures never reach the ledger or the mirror.

// CreateMaterialRequest creates a tracked material.
type CreateMaterialRequest struct {
	MaterialID  string          `json:"materialId"`
	Description string          `json:"description"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	Location    json.RawMessage `json:"location,omitempty"`
}

func (r CreateMaterialRequest) validate() error {
	if r.MaterialID == "" || r.Description == "" {
		return newValidationError("materialId and description are required")
	}
	return nil
}

// TransferMaterialRequest moves custody of a material to a new holder.
// From and To are location inputs in either shape accepted by geo.Normalize.
type TransferMaterialRequest struct {
	MaterialID  string          `json:"-"`
	NewHolder   string          `json:"newHolder"`
	From        json.RawMessage `json:"from"`
	To          json.RawMessage `json:"to"`
	Description string          `json:"description,omitempty"`
}

func (r TransferMaterialRequest) validate() error {
	if r.NewHolder == "" || len(r.From) == 0 || len(r.To) == 0 {
		return newValidationError("newHolder, from and to are all required")
	}
	return nil
}

// CreateWasteRequest creates a hazardous-waste record.
type CreateWasteRequest struct {
	WasteID     string `json:"wasteId"`
	WasteType   string `json:"wasteType"`
	HazardClass string `json:"hazardClass"`
	Quantity    int64  `json:"quantity"`
	Units       string `json:"units"`
}

func (r CreateWasteRequest) validate() error {
	if r.WasteID == "" || r.WasteType == "" || r.HazardClass == "" || r.Quantity <= 0 || r.Units == "" {
		return newValidationError("wasteId, wasteType, hazardClass, quantity and units are required")
	}
	return nil
}

// TransferWasteRequest moves a waste record to a new holder.
type TransferWasteRequest struct {
	WasteID   string          `json:"-"`
	NewHolder string          `json:"newHolder"`
	From      json.RawMessage `json:"from"`
	To        json.RawMessage `json:"to"`
}

func (r TransferWasteRequest) validate() error {
	if r.NewHolder == "" || len(r.From) == 0 || len(r.To) == 0 {
		return newValidationError("newHolder, from and to are required")
	}
	return nil
}
