// Package chain talks to the secret-registry contract: it submits signed
// transactions and watches for the SecretCreated event. Both sides share one
// parsed ABI and a node connection that supports websocket subscriptions.
package chain

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Contract function and event names consumed by the publish workflow.
const (
	FnCreatePreSecret      = "createPreSecret"
	FnAssociatePostDetails = "associatePostDetails"
	EvSecretCreated        = "SecretCreated"
)

const registryABI = `[
  {"type":"function","name":"createPreSecret","stateMutability":"nonpayable",
   "inputs":[{"name":"owner","type":"address"}],"outputs":[]},
  {"type":"function","name":"associatePostDetails","stateMutability":"nonpayable",
   "inputs":[{"name":"secretHash","type":"bytes32"},{"name":"postId","type":"string"}],"outputs":[]},
  {"type":"event","name":"SecretCreated","anonymous":false,
   "inputs":[{"name":"secretHash","type":"bytes32","indexed":true},{"name":"owner","type":"address","indexed":true}]}
]`

// RegistryABI returns the parsed ABI of the secret-registry contract.
func RegistryABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(registryABI))
}

// Dial connects to a chain node. The address must be a websocket endpoint,
// since the watcher relies on log subscriptions.
func Dial(ctx context.Context, addr string) (*ethclient.Client, error) {
	return ethclient.DialContext(ctx, addr)
}
