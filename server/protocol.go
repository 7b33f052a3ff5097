package main

import "encoding/json"

// Client -> Server message types
const (
	MsgClaim    = "claim"    // bind a claim token to this connection
	MsgAllocate = "allocate" // spend a talent point
	MsgReset    = "reset"    // reset talents
	MsgTx       = "tx"       // observed transaction, cosmetic pulse only
)

// Server -> Client message types
const (
	MsgWelcome = "welcome"
	MsgState   = "state" // binary msgpack snapshot, not an envelope
	MsgResult  = "result"
	MsgClaimed = "claimed"
	MsgError   = "error"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ClaimMsg binds a claim token to the connection
type ClaimMsg struct {
	Token string `json:"token"`
}

// AllocateMsg spends one talent point
type AllocateMsg struct {
	Talent string `json:"talent"`
}

// TxMsg reports an externally classified transaction. The sim never
// derives buy/sell itself; the upstream watcher supplies the kind.
type TxMsg struct {
	Kind string `json:"kind"` // "buy" or "sell"
}

// WelcomeMsg is sent on connect
type WelcomeMsg struct {
	Tick    uint64 `json:"tick"`
	Bubbles int    `json:"bubbles"`
}

// ClaimedMsg confirms a token bind
type ClaimedMsg struct {
	Address string `json:"address"`
}

// ResultMsg reports the outcome of a queued action
type ResultMsg struct {
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Code   string `json:"code,omitempty"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
