// Package ledger defines the narrow contract to the external append-only
// ledger and its network-backed adapter.
//
// The ledger is the authority for custody state: who holds an item and its
// sequence number. Callers submit signed operations and block until the
// operation is mined or terminally rejected; queries are idempotent reads of
// confirmed state. Consensus, signing, and wallet management are properties
// of the ledger itself and are invisible behind this interface.
package ledger

import "context"

// Contract operation names. These match the deployed contract functions;
// the adapter passes them through verbatim.
const (
	OpInitializeMaterial = "initializeMaterial"
	OpTransferMaterial   = "transferMaterial"

	OpCreateWaste   = "createWaste"
	OpTransferWaste = "transferWaste"
	OpDeliverWaste  = "deliverWaste"
	OpDisposeWaste  = "disposeWaste"
)

// Call is a single state-changing contract invocation.
type Call struct {
	// Op is the contract function name.
	Op string `json:"op"`

	// Args are positional string arguments, encoded per the contract ABI
	// convention used by the gateway.
	Args []string `json:"args"`

	// Signer is the identity the transaction is signed as. The ledger
	// enforces authorization against it (e.g. only the current holder may
	// transfer a material).
	Signer string `json:"signer"`
}

// Confirmation is the result of a mined, accepted operation.
type Confirmation struct {
	TxHash   string `json:"txHash"`
	Sequence int64  `json:"sequence"`
}

// State is the confirmed ledger state for one item.
type State struct {
	Holder   string            `json:"holder"`
	Sequence int64             `json:"sequence"`
	Status   string            `json:"status"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// Client is the submit-and-confirm contract around the external ledger.
//
// Submit blocks until the operation is confirmed or terminally rejected;
// a nil error means the state transition is committed. Query reads confirmed
// state and returns ErrNotFound for unknown ids. Implementations must be
// safe for concurrent use; the service shares one client across requests.
type Client interface {
	Submit(ctx context.Context, call Call) (*Confirmation, error)
	Query(ctx context.Context, id string) (*State, error)
}
