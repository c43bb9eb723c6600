package custody

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/ledgertrace/custodia/internal/geo"
	"github.com/ledgertrace/custodia/internal/ledger"
	"github.com/ledgertrace/custodia/internal/mirror"
)

// Waste lifecycle event names recorded in history.
const (
	wasteEventCreated     = "Created"
	wasteEventTransferred = "Transferred"
	wasteEventDelivered   = "Delivered"
	wasteEventDisposed    = "Disposed"
)

// WasteEngine runs the hazardous-waste lifecycle: the same ledger-first,
// mirror-second orchestration as the material engine, but over the stricter
// linear state machine Created → InTransit → Delivered, with Disposed
// reachable from any non-terminal state.
//
// Unlike material transfers, waste operations are signed by the operator:
// the waste contract is operator-administered rather than holder-signed.
// Each successful ledger confirmation appends exactly one history record
// and sets the mirror's sequence to the ledger's own counter.
type WasteEngine struct {
	ledger   ledger.Client
	store    *mirror.Store
	operator string
	now      func() time.Time
}

// NewWasteEngine creates a WasteEngine from its dependencies.
func NewWasteEngine(cfg Config) (*WasteEngine, error) {
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
	return &WasteEngine{
		ledger:   cfg.Ledger,
		store:    cfg.Store,
		operator: cfg.Operator,
		now:      now,
	}, nil
}

// Create registers a waste record on the ledger and inserts the mirror
// document. The ledger's counter starts at 1 for a fresh record.
func (e *WasteEngine) Create(ctx context.Context, req CreateWasteRequest) (*mirror.Waste, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	conf, err := e.ledger.Submit(ctx, ledger.Call{
		Op: ledger.OpCreateWaste,
		Args: []string{
			req.WasteID,
			req.WasteType,
			req.HazardClass,
			strconv.FormatInt(req.Quantity, 10),
			req.Units,
		},
		Signer: e.operator,
	})
	if err != nil {
		return nil, classifySubmit(req.WasteID, err, false)
	}

	w := &mirror.Waste{
		WasteID:       req.WasteID,
		WasteType:     req.WasteType,
		HazardClass:   req.HazardClass,
		Quantity:      req.Quantity,
		Units:         req.Units,
		CurrentHolder: e.operator,
		Status:        mirror.StatusCreated,
		Sequence:      conf.Sequence,
		TxHash:        conf.TxHash,
		CreatedAt:     e.now().Unix(),
	}
	if err := e.store.InsertWaste(ctx, w); err != nil {
		slog.Error("mirror insert failed after ledger create; reconciliation required",
			"waste_id", req.WasteID,
			"tx_hash", conf.TxHash,
			"error", err,
		)
		return nil, newPersistenceError(req.WasteID, err)
	}

	ev := &mirror.WasteEvent{
		WasteID: req.WasteID,
		Event:   wasteEventCreated,
		Ts:      e.now().Unix(),
		TxHash:  conf.TxHash,
	}
	if err := e.store.AppendWasteEvent(ctx, ev); err != nil {
		slog.Error("history append failed after ledger create; reconciliation required",
			"waste_id", req.WasteID,
			"tx_hash", conf.TxHash,
			"error", err,
		)
		return nil, newPersistenceError(req.WasteID, err)
	}

	slog.Info("waste created",
		"waste_id", w.WasteID,
		"hazard_class", w.HazardClass,
		"tx_hash", w.TxHash,
	)
	return w, nil
}

// Transfer moves a waste record to a new holder, recording from/to geometry.
func (e *WasteEngine) Transfer(ctx context.Context, req TransferWasteRequest) (*mirror.Waste, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	from, err := geo.Normalize(req.From)
	if err != nil {
		return nil, newGeometryError(req.WasteID, err)
	}
	to, err := geo.Normalize(req.To)
	if err != nil {
		return nil, newGeometryError(req.WasteID, err)
	}

	if _, err := e.store.GetWaste(ctx, req.WasteID); err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			return nil, newNotFoundError(req.WasteID)
		}
		return nil, newPersistenceError(req.WasteID, err)
	}

	return e.transition(ctx, req.WasteID,
		ledger.Call{
			Op:     ledger.OpTransferWaste,
			Args:   []string{req.WasteID, req.NewHolder},
			Signer: e.operator,
		},
		mirror.StatusInTransit,
		&mirror.WasteEvent{
			WasteID: req.WasteID,
			Event:   wasteEventTransferred,
			From:    &from,
			To:      &to,
		},
	)
}

// Deliver marks an in-transit waste record as delivered.
func (e *WasteEngine) Deliver(ctx context.Context, wasteID string) (*mirror.Waste, error) {
	if wasteID == "" {
		return nil, newValidationError("wasteId is required")
	}
	if _, err := e.store.GetWaste(ctx, wasteID); err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			return nil, newNotFoundError(wasteID)
		}
		return nil, newPersistenceError(wasteID, err)
	}

	return e.transition(ctx, wasteID,
		ledger.Call{Op: ledger.OpDeliverWaste, Args: []string{wasteID}, Signer: e.operator},
		mirror.StatusDelivered,
		&mirror.WasteEvent{WasteID: wasteID, Event: wasteEventDelivered},
	)
}

// Dispose terminally disposes a waste record. Valid from any non-Disposed
// state; the ledger is the single source of truth for transition legality
// and the mirror layer does not duplicate that check.
func (e *WasteEngine) Dispose(ctx context.Context, wasteID string) (*mirror.Waste, error) {
	if wasteID == "" {
		return nil, newValidationError("wasteId is required")
	}
	if _, err := e.store.GetWaste(ctx, wasteID); err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			return nil, newNotFoundError(wasteID)
		}
		return nil, newPersistenceError(wasteID, err)
	}

	return e.transition(ctx, wasteID,
		ledger.Call{Op: ledger.OpDisposeWaste, Args: []string{wasteID}, Signer: e.operator},
		mirror.StatusDisposed,
		&mirror.WasteEvent{WasteID: wasteID, Event: wasteEventDisposed},
	)
}

// transition submits one lifecycle call, reconciles the mirror from the
// authoritative ledger state, and appends the history event.
func (e *WasteEngine) transition(ctx context.Context, wasteID string, call ledger.Call, status mirror.Status, ev *mirror.WasteEvent) (*mirror.Waste, error) {
	conf, err := e.ledger.Submit(ctx, call)
	if err != nil {
		return nil, classifySubmit(wasteID, err, true)
	}

	state, err := e.ledger.Query(ctx, wasteID)
	if err != nil {
		slog.Error("ledger re-query failed after confirmed transition; reconciliation required",
			"waste_id", wasteID,
			"op", call.Op,
			"tx_hash", conf.TxHash,
			"error", err,
		)
		return nil, newPersistenceError(wasteID, err)
	}

	if err := e.store.UpdateWasteState(ctx, wasteID, state.Holder, status, state.Sequence, conf.TxHash); err != nil {
		slog.Error("mirror update failed after confirmed transition; reconciliation required",
			"waste_id", wasteID,
			"op", call.Op,
			"tx_hash", conf.TxHash,
			"error", err,
		)
		return nil, newPersistenceError(wasteID, err)
	}

	ev.Ts = e.now().Unix()
	ev.TxHash = conf.TxHash
	if err := e.store.AppendWasteEvent(ctx, ev); err != nil {
		slog.Error("history append failed after confirmed transition; reconciliation required",
			"waste_id", wasteID,
			"op", call.Op,
			"tx_hash", conf.TxHash,
			"error", err,
		)
		return nil, newPersistenceError(wasteID, err)
	}

	slog.Info("waste transitioned",
		"waste_id", wasteID,
		"op", call.Op,
		"status", string(status),
		"sequence", state.Sequence,
		"tx_hash", conf.TxHash,
	)

	w, err := e.store.GetWaste(ctx, wasteID)
	if err != nil {
		return nil, newPersistenceError(wasteID, err)
	}
	return w, nil
}

// Get reads the mirror document and refreshes ledger-owned fields from a
// ledger query, best-effort like the material read path.
func (e *WasteEngine) Get(ctx context.Context, wasteID string) (*mirror.Waste, error) {
	w, err := e.store.GetWaste(ctx, wasteID)
	if err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			return nil, newNotFoundError(wasteID)
		}
		return nil, newPersistenceError(wasteID, err)
	}

	state, err := e.ledger.Query(ctx, wasteID)
	if err != nil {
		slog.Warn("ledger query failed on read; returning mirror document",
			"waste_id", wasteID,
			"error", err,
		)
		return w, nil
	}

	if state.Holder != w.CurrentHolder || state.Sequence != w.Sequence || mirror.Status(state.Status) != w.Status {
		if err := e.store.UpdateWasteState(ctx, wasteID, state.Holder, mirror.Status(state.Status), state.Sequence, w.TxHash); err != nil {
			return nil, newPersistenceError(wasteID, err)
		}
		w.CurrentHolder = state.Holder
		w.Sequence = state.Sequence
		w.Status = mirror.Status(state.Status)
	}
	return w, nil
}

// History returns the ordered lifecycle events for a waste record.
func (e *WasteEngine) History(ctx context.Context, wasteID string) ([]mirror.WasteEvent, error) {
	if _, err := e.store.GetWaste(ctx, wasteID); err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			return nil, newNotFoundError(wasteID)
		}
		return nil, newPersistenceError(wasteID, err)
	}
	events, err := e.store.WasteHistory(ctx, wasteID)
	if err != nil {
		return nil, newPersistenceError(wasteID, err)
	}
	return events, nil
}
