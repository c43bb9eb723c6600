package mirror

import "github.com/ledgertrace/custodia/internal/geo"

// Status is an item lifecycle state.
//
// Materials cycle Created → InTransit and stay InTransit across repeated
// transfers; waste follows Created → InTransit → Delivered with Disposed
// reachable from any non-terminal state.
type Status string

const (
	StatusCreated   Status = "Created"
	StatusInTransit Status = "InTransit"
	StatusDelivered Status = "Delivered"
	StatusDisposed  Status = "Disposed"
)

// Material is the mirror document for a tracked material.
//
// CurrentHolder and LastSequence mirror ledger truth; they are only written
// from ledger confirmations and reads, never computed locally.
type Material struct {
	MaterialID    string         `json:"materialId"`
	Description   string         `json:"description"`
	Metadata      map[string]any `json:"metadata"`
	CurrentHolder string         `json:"currentHolder"`
	LastSequence  int64          `json:"lastSequence"`
	Status        Status         `json:"status"`
	Location      *geo.Point     `json:"location,omitempty"`
	TxHash        string         `json:"txHash,omitempty"`
	CreatedAt     int64          `json:"createdAt"`
}

// TransferEvent is an immutable material transfer record. Events are
// append-only: never mutated or deleted after insertion.
type TransferEvent struct {
	ID          int64                  `json:"-"`
	MaterialID  string                 `json:"materialId"`
	From        geo.Point              `json:"from"`
	To          geo.Point              `json:"to"`
	Path        geo.GeometryCollection `json:"path"`
	Ts          int64                  `json:"timestamp"`
	TxHash      string                 `json:"txHash"`
	Description string                 `json:"description,omitempty"`
	Status      Status                 `json:"status"`
	SubmittedBy string                 `json:"submittedBy"`
}

// Waste is the mirror document for a hazardous-waste record.
type Waste struct {
	WasteID       string `json:"wasteId"`
	WasteType     string `json:"wasteType"`
	HazardClass   string `json:"hazardClass"`
	Quantity      int64  `json:"quantity"`
	Units         string `json:"units"`
	CurrentHolder string `json:"currentHolder"`
	Status        Status `json:"status"`
	Sequence      int64  `json:"sequence"`
	TxHash        string `json:"txHash,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
}

// WasteEvent is an immutable waste lifecycle record. Transfer events carry
// from/to geometry; deliver and dispose events do not.
type WasteEvent struct {
	ID      int64      `json:"-"`
	WasteID string     `json:"wasteId"`
	Event   string     `json:"event"`
	From    *geo.Point `json:"from,omitempty"`
	To      *geo.Point `json:"to,omitempty"`
	Ts      int64      `json:"timestamp"`
	TxHash  string     `json:"txHash"`
}

// Company is a principal credential record. The name is the identity string
// referenced by holder fields.
type Company struct {
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"createdAt"`
}
