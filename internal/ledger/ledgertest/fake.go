// Package ledgertest provides an in-memory ledger fake implementing the
// custody and waste contract semantics for tests.
//
// The fake enforces the same rules the deployed contracts do: duplicate
// initialization is rejected, only the current holder may transfer a
// material, and waste follows Created → InTransit → Delivered with Disposed
// reachable from any non-terminal state. Sequences are monotonic per item
// and tx hashes are deterministic, so engine tests can assert exact values.
package ledgertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ledgertrace/custodia/internal/ledger"
)

type materialState struct {
	holder   string
	sequence int64
	status   string
}

type wasteState struct {
	holder      string
	status      string
	wasteType   string
	hazardClass string
	quantity    string
	units       string
	sequence    int64
}

// Fake is an in-memory ledger. Safe for concurrent use; a single mutex
// serializes submissions the way the real chain serializes transactions.
type Fake struct {
	mu        sync.Mutex
	materials map[string]*materialState
	waste     map[string]*wasteState
	txCounter int64

	submitCalls int
	nextErr     error
}

// New creates an empty fake ledger.
func New() *Fake {
	return &Fake{
		materials: make(map[string]*materialState),
		waste:     make(map[string]*wasteState),
	}
}

// FailNextSubmit makes the next Submit return err without executing.
// Used to simulate gateway outages and unknown outcomes.
func (f *Fake) FailNextSubmit(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextErr = err
}

// SubmitCalls returns how many submissions reached the ledger. Validation
// tests use it to prove a rejected request never contacted the ledger.
func (f *Fake) SubmitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls
}

// Submit executes one contract call under the fake's transaction lock.
func (f *Fake) Submit(ctx context.Context, call ledger.Call) (*ledger.Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, ledger.NewInfrastructure(call.Op, "context done", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++

	if f.nextErr != nil {
		err := f.nextErr
		f.nextErr = nil
		return nil, err
	}

	switch call.Op {
	case ledger.OpInitializeMaterial:
		return f.initializeMaterial(call)
	case ledger.OpTransferMaterial:
		return f.transferMaterial(call)
	case ledger.OpCreateWaste:
		return f.createWaste(call)
	case ledger.OpTransferWaste:
		return f.transferWaste(call)
	case ledger.OpDeliverWaste:
		return f.deliverWaste(call)
	case ledger.OpDisposeWaste:
		return f.disposeWaste(call)
	default:
		return nil, ledger.NewRejection(call.Op, "unknown contract function")
	}
}

// Query returns confirmed state for a material or waste id.
func (f *Fake) Query(ctx context.Context, id string) (*ledger.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, ledger.NewInfrastructure("query", "context done", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok := f.materials[id]; ok {
		return &ledger.State{Holder: m.holder, Sequence: m.sequence, Status: m.status}, nil
	}
	if w, ok := f.waste[id]; ok {
		return &ledger.State{
			Holder:   w.holder,
			Sequence: w.sequence,
			Status:   w.status,
			Attrs: map[string]string{
				"wasteType":   w.wasteType,
				"hazardClass": w.hazardClass,
				"quantity":    w.quantity,
				"units":       w.units,
			},
		}, nil
	}
	return nil, ledger.ErrNotFound
}

func (f *Fake) initializeMaterial(call ledger.Call) (*ledger.Confirmation, error) {
	if len(call.Args) != 2 {
		return nil, ledger.NewRejection(call.Op, "expected (id, description)")
	}
	id := call.Args[0]
	if _, exists := f.materials[id]; exists {
		return nil, ledger.NewRejection(call.Op, "material already initialized")
	}
	f.materials[id] = &materialState{holder: call.Signer, sequence: 0, status: "Created"}
	return f.confirm(0), nil
}

func (f *Fake) transferMaterial(call ledger.Call) (*ledger.Confirmation, error) {
	if len(call.Args) != 2 {
		return nil, ledger.NewRejection(call.Op, "expected (id, newHolder)")
	}
	m, ok := f.materials[call.Args[0]]
	if !ok {
		return nil, ledger.NewRejection(call.Op, "unknown material")
	}
	if m.holder != call.Signer {
		return nil, ledger.NewRejection(call.Op, "caller is not the current holder")
	}
	m.holder = call.Args[1]
	m.sequence++
	m.status = "InTransit"
	return f.confirm(m.sequence), nil
}

func (f *Fake) createWaste(call ledger.Call) (*ledger.Confirmation, error) {
	if len(call.Args) != 5 {
		return nil, ledger.NewRejection(call.Op, "expected (id, type, hazardClass, quantity, units)")
	}
	id := call.Args[0]
	if _, exists := f.waste[id]; exists {
		return nil, ledger.NewRejection(call.Op, "waste record already exists")
	}
	f.waste[id] = &wasteState{
		holder:      call.Signer,
		status:      "Created",
		wasteType:   call.Args[1],
		hazardClass: call.Args[2],
		quantity:    call.Args[3],
		units:       call.Args[4],
		sequence:    1,
	}
	return f.confirm(1), nil
}

func (f *Fake) transferWaste(call ledger.Call) (*ledger.Confirmation, error) {
	if len(call.Args) != 2 {
		return nil, ledger.NewRejection(call.Op, "expected (id, newHolder)")
	}
	w, ok := f.waste[call.Args[0]]
	if !ok {
		return nil, ledger.NewRejection(call.Op, "unknown waste record")
	}
	if w.status != "Created" && w.status != "InTransit" {
		return nil, ledger.NewRejection(call.Op, fmt.Sprintf("cannot transfer waste in status %s", w.status))
	}
	w.holder = call.Args[1]
	w.status = "InTransit"
	w.sequence++
	return f.confirm(w.sequence), nil
}

func (f *Fake) deliverWaste(call ledger.Call) (*ledger.Confirmation, error) {
	if len(call.Args) != 1 {
		return nil, ledger.NewRejection(call.Op, "expected (id)")
	}
	w, ok := f.waste[call.Args[0]]
	if !ok {
		return nil, ledger.NewRejection(call.Op, "unknown waste record")
	}
	if w.status != "InTransit" {
		return nil, ledger.NewRejection(call.Op, fmt.Sprintf("cannot deliver waste in status %s", w.status))
	}
	w.status = "Delivered"
	w.sequence++
	return f.confirm(w.sequence), nil
}

func (f *Fake) disposeWaste(call ledger.Call) (*ledger.Confirmation, error) {
	if len(call.Args) != 1 {
		return nil, ledger.NewRejection(call.Op, "expected (id)")
	}
	w, ok := f.waste[call.Args[0]]
	if !ok {
		return nil, ledger.NewRejection(call.Op, "unknown waste record")
	}
	if w.status == "Disposed" {
		return nil, ledger.NewRejection(call.Op, "waste already disposed")
	}
	w.status = "Disposed"
	w.sequence++
	return f.confirm(w.sequence), nil
}

// confirm mints a deterministic tx hash. Callers hold f.mu.
func (f *Fake) confirm(sequence int64) *ledger.Confirmation {
	f.txCounter++
	return &ledger.Confirmation{
		TxHash:   fmt.Sprintf("0x%064x", f.txCounter),
		Sequence: sequence,
	}
}
