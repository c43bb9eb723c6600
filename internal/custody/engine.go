// Package custody orchestrates state transitions against the external
// ledger and reconciles the mirror store with confirmed results.
//
// Every state-changing operation follows the same two-phase shape:
//
//  1. Validate input locally; failures return before any ledger contact.
//  2. Submit the signed operation to the ledger and block for confirmation.
//     A rejection aborts with the mirror untouched.
//  3. Reconcile the mirror from the confirmed result (re-querying the ledger
//     for authoritative holder/sequence where the operation moved them).
//  4. Append the immutable history event.
//
// The ordering is the consistency mechanism: if the ledger call fails the
// mirror is guaranteed untouched; if the ledger call succeeds and a mirror
// write then fails, the divergence is surfaced as a PERSISTENCE error and
// logged for reconciliation, never swallowed.
//
// No in-process lock is taken per item. Two racing transfers are serialized
// by the ledger itself: it accepts only one signed-by-current-holder call
// per logical state, so the loser observes TRANSFER_CONFLICT and the mirror
// reflects whichever call the ledger confirmed.
package custody

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ledgertrace/custodia/internal/geo"
	"github.com/ledgertrace/custodia/internal/ledger"
	"github.com/ledgertrace/custodia/internal/mirror"
	"github.com/ledgertrace/custodia/internal/route"
)

// Config carries the engine's dependencies. Explicit injection — no global
// client handles — so tests can substitute fakes for both collaborators.
type Config struct {
	// Ledger is the custody contract client.
	Ledger ledger.Client

	// Store is the mirror store.
	Store *mirror.Store

	// Operator is the process's own signing identity. Creates are signed
	// as the operator, and newly created items are held by it.
	Operator string

	// Now supplies event timestamps. Defaults to time.Now; tests inject a
	// fixed clock for deterministic history.
	Now func() time.Time
}

// Engine is the custody synchronization engine for materials.
type Engine struct {
	ledger   ledger.Client
	store    *mirror.Store
	operator string
	now      func() time.Time
}

// New creates an Engine from its dependencies.
func New(cfg Config) (*Engine, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("custody: ledger client is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("custody: mirror store is required")
	}
	if cfg.Operator == "" {
		return nil, errors.New("custody: operator identity is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		ledger:   cfg.Ledger,
		store:    cfg.Store,
		operator: cfg.Operator,
		now:      now,
	}, nil
}

// CreateMaterial initializes a material on the ledger and inserts the
// mirror document.
//
// Ledger first, mirror second: a ledger rejection returns with no partial
// mirror write. A duplicate-key failure after ledger success means the
// ledger accepted an id the mirror already holds — ledger/mirror skew —
// and is surfaced as PERSISTENCE, not swallowed.
func (e *Engine) CreateMaterial(ctx context.Context, req CreateMaterialRequest) (*mirror.Material, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var location *geo.Point
	if len(req.Location) > 0 {
		p, err := geo.Normalize(req.Location)
		if err != nil {
			return nil, newGeometryError(req.MaterialID, err)
		}
		location = &p
	}

	conf, err := e.ledger.Submit(ctx, ledger.Call{
		Op:     ledger.OpInitializeMaterial,
		Args:   []string{req.MaterialID, req.Description},
		Signer: e.operator,
	})
	if err != nil {
		return nil, classifySubmit(req.MaterialID, err, false)
	}

	m := &mirror.Material{
		MaterialID:    req.MaterialID,
		Description:   req.Description,
		Metadata:      req.Metadata,
		CurrentHolder: e.operator,
		LastSequence:  0,
		Status:        mirror.StatusCreated,
		Location:      location,
		TxHash:        conf.TxHash,
		CreatedAt:     e.now().Unix(),
	}
	if err := e.store.InsertMaterial(ctx, m); err != nil {
		slog.Error("mirror insert failed after ledger init; reconciliation required",
			"material_id", req.MaterialID,
			"tx_hash", conf.TxHash,
			"error", err,
		)
		return nil, newPersistenceError(req.MaterialID, err)
	}
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}

	slog.Info("material created",
		"material_id", m.MaterialID,
		"holder", m.CurrentHolder,
		"tx_hash", m.TxHash,
	)
	return m, nil
}

// TransferMaterial moves custody to a new holder.
//
// The ledger call is signed as the previous holder read from the mirror;
// the ledger enforcing that only the current holder may transfer is the
// authorization check of record. A rejection here is a conflict (a
// concurrent transfer already moved the item, or the caller no longer holds
// it), and the mirror is left unchanged.
//
// After confirmation the ledger is re-queried for the authoritative
// (holder, sequence) — client-local state is never trusted — and the mirror
// is overwritten before the immutable transfer event is appended.
func (e *Engine) TransferMaterial(ctx context.Context, req TransferMaterialRequest) (*mirror.Material, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	from, err := geo.Normalize(req.From)
	if err != nil {
		return nil, newGeometryError(req.MaterialID, err)
	}
	to, err := geo.Normalize(req.To)
	if err != nil {
		return nil, newGeometryError(req.MaterialID, err)
	}

	existing, err := e.store.GetMaterial(ctx, req.MaterialID)
	if err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			return nil, newNotFoundError(req.MaterialID)
		}
		return nil, newPersistenceError(req.MaterialID, err)
	}
	prevHolder := existing.CurrentHolder

	conf, err := e.ledger.Submit(ctx, ledger.Call{
		Op:     ledger.OpTransferMaterial,
		Args:   []string{req.MaterialID, req.NewHolder},
		Signer: prevHolder,
	})
	if err != nil {
		return nil, classifySubmit(req.MaterialID, err, true)
	}

	state, err := e.ledger.Query(ctx, req.MaterialID)
	if err != nil {
		// Ledger committed but the authoritative read failed: the mirror
		// is now behind ledger truth until a reconciliation pass runs.
		slog.Error("ledger re-query failed after confirmed transfer; reconciliation required",
			"material_id", req.MaterialID,
			"tx_hash", conf.TxHash,
			"error", err,
		)
		return nil, newPersistenceError(req.MaterialID, err)
	}

	if err := e.store.UpdateMaterialState(ctx, req.MaterialID, state.Holder, state.Sequence, mirror.StatusInTransit, conf.TxHash); err != nil {
		slog.Error("mirror update failed after confirmed transfer; reconciliation required",
			"material_id", req.MaterialID,
			"tx_hash", conf.TxHash,
			"error", err,
		)
		return nil, newPersistenceError(req.MaterialID, err)
	}

	ev := &mirror.TransferEvent{
		MaterialID:  req.MaterialID,
		From:        from,
		To:          to,
		Path:        geo.CompositePath(from, to),
		Ts:          e.now().Unix(),
		TxHash:      conf.TxHash,
		Description: req.Description,
		Status:      mirror.StatusInTransit,
		SubmittedBy: prevHolder,
	}
	if err := e.store.AppendTransfer(ctx, ev); err != nil {
		slog.Error("history append failed after confirmed transfer; reconciliation required",
			"material_id", req.MaterialID,
			"tx_hash", conf.TxHash,
			"error", err,
		)
		return nil, newPersistenceError(req.MaterialID, err)
	}

	slog.Info("material transferred",
		"material_id", req.MaterialID,
		"from_holder", prevHolder,
		"to_holder", state.Holder,
		"sequence", state.Sequence,
		"tx_hash", conf.TxHash,
	)

	refreshed, err := e.store.GetMaterial(ctx, req.MaterialID)
	if err != nil {
		return nil, newPersistenceError(req.MaterialID, err)
	}
	return refreshed, nil
}

// GetMaterial reads the mirror document and refreshes its ledger-owned
// fields from a ledger query, so reads heal a briefly stale mirror.
// The ledger read is best-effort: if the ledger has no state or is
// unreachable the mirror document is returned as-is.
func (e *Engine) GetMaterial(ctx context.Context, materialID string) (*mirror.Material, error) {
	m, err := e.store.GetMaterial(ctx, materialID)
	if err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			return nil, newNotFoundError(materialID)
		}
		return nil, newPersistenceError(materialID, err)
	}

	state, err := e.ledger.Query(ctx, materialID)
	if err != nil {
		slog.Warn("ledger query failed on read; returning mirror document",
			"material_id", materialID,
			"error", err,
		)
		return m, nil
	}

	if state.Holder != m.CurrentHolder || state.Sequence != m.LastSequence {
		if err := e.store.RefreshMaterialLedger(ctx, materialID, state.Holder, state.Sequence); err != nil {
			return nil, newPersistenceError(materialID, err)
		}
		m.CurrentHolder = state.Holder
		m.LastSequence = state.Sequence
	}
	return m, nil
}

// ListMaterials returns all mirror documents.
func (e *Engine) ListMaterials(ctx context.Context) ([]mirror.Material, error) {
	materials, err := e.store.ListMaterials(ctx)
	if err != nil {
		return nil, newPersistenceError("", err)
	}
	return materials, nil
}

// History returns the ordered transfer events for a material.
// Returns NOT_FOUND if the material has no mirror document.
func (e *Engine) History(ctx context.Context, materialID string) ([]mirror.TransferEvent, error) {
	if _, err := e.store.GetMaterial(ctx, materialID); err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			return nil, newNotFoundError(materialID)
		}
		return nil, newPersistenceError(materialID, err)
	}
	events, err := e.store.MaterialHistory(ctx, materialID)
	if err != nil {
		return nil, newPersistenceError(materialID, err)
	}
	return events, nil
}

// Route reconstructs the geospatial route from the transfer history.
// A material with no transfers yields an empty feature collection.
func (e *Engine) Route(ctx context.Context, materialID string) (geo.FeatureCollection, error) {
	events, err := e.History(ctx, materialID)
	if err != nil {
		return geo.FeatureCollection{}, err
	}
	return route.Build(events), nil
}
