package model

import "time"

type ActionType uint8

const (
	ActionSwap ActionType = iota
	ActionLend
	ActionBorrow
	ActionAddLiquidity
	ActionRemoveLiquidity
	ActionEmergencyWithdraw

	actionTypeCount
)

var actionTypeNames = map[ActionType]string{
	ActionSwap:              "Swap",
	ActionLend:              "Lend",
	ActionBorrow:            "Borrow",
	ActionAddLiquidity:      "AddLiquidity",
	ActionRemoveLiquidity:   "RemoveLiquidity",
	ActionEmergencyWithdraw: "EmergencyWithdraw",
}

func (a ActionType) String() string {
	if name, ok := actionTypeNames[a]; ok {
		return name
	}
	return "Unknown"
}

func (a ActionType) IsValid() bool {
	return a < actionTypeCount
}

// ActionTypeFromString resolves the wire name of an action type.
func ActionTypeFromString(name string) (ActionType, bool) {
	for action, actionName := range actionTypeNames {
		if actionName == name {
			return action, true
		}
	}
	return 0, false
}

// Proposal is one intended vault action awaiting authorization. It is built
// and signed by the agent, then consumed exactly once by the executor.
type Proposal struct {
	Vault      string
	ActionType ActionType
	// action specific payload; empty is legal for no-op actions
	Params      []byte
	ContentHash string
	Nonce       uint64
	Deadline    time.Time
}

// SwapParams is the decoded payload of a Swap proposal.
type SwapParams struct {
	Venue        string `cbor:"venue"`
	TradeAmount  uint64 `cbor:"tradeAmount"`
	VaultBalance uint64 `cbor:"vaultBalance"`
}

// TransferParams is the decoded payload of a Lend or Borrow proposal.
type TransferParams struct {
	Amount       uint64 `cbor:"amount"`
	VaultBalance uint64 `cbor:"vaultBalance"`
}
