package protocol

import "encoding/json"

// Client -> server
const (
	MsgStart     = "start"
	MsgStop      = "stop"
	MsgReset     = "reset"
	MsgRandomize = "randomize"
	MsgSettings  = "settings"
)

// Server -> client
const (
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgAck     = "ack"
	MsgError   = "error"
	MsgRecord  = "record"
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"` // raw payload bytes
}

type Welcome struct {
	ID string `json:"id"`
}

type StartPayload struct {
	Mode string `json:"mode"`
}

type Ack struct {
	Cmd string `json:"cmd"`
}

type Error struct {
	Cmd     string `json:"cmd"`
	Message string `json:"message"`
}
