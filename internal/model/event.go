package model

import (
	"encoding/json"
	"fmt"
)

// EventKind discriminates the server-pushed event envelope.
type EventKind string

const (
	EventAssetUpdate   EventKind = "asset_update"
	EventCycleComplete EventKind = "cycle_complete"
	EventCountdown     EventKind = "countdown"
	EventStatus        EventKind = "status"
	EventLog           EventKind = "log"
	EventReset         EventKind = "reset"
	EventHeartbeat     EventKind = "heartbeat"
)

// Event is a decoded stream envelope. Exactly one payload field is non-nil,
// matching Kind; Reset and Heartbeat carry no payload.
type Event struct {
	Kind EventKind

	Asset     *AssetSnapshot
	Cycle     *CycleComplete
	Countdown *Countdown
	Status    *Status
	Log       *LogMessage
}

// CycleComplete reports one full refresh pass over the configured assets.
type CycleComplete struct {
	Timestamp string `json:"timestamp"` // server-rendered HH:MM:SS
	Count     int    `json:"count"`     // assets refreshed this cycle
	Total     int    `json:"total"`     // assets configured
}

// Countdown is the seconds-until-next-cycle ticker.
type Countdown struct {
	SecondsLeft int `json:"seconds_left"`
}

// Status carries the authoritative server-side run state.
type Status struct {
	Running bool `json:"running"`
}

// LogMessage is a server-side log line forwarded to the client log sink.
type LogMessage struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

// envelope is the wire shape of every stream message.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeEvent parses a raw `{type, data}` envelope into a typed Event.
// Unknown kinds and payloads that do not match their declared kind return an
// error; the caller drops the message and logs, it never tears down the
// connection.
func DecodeEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("decode envelope: %w", err)
	}

	ev := Event{Kind: EventKind(env.Type)}
	switch ev.Kind {
	case EventAssetUpdate:
		var snap AssetSnapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			return Event{}, fmt.Errorf("decode asset_update: %w", err)
		}
		if snap.Symbol == "" {
			return Event{}, fmt.Errorf("asset_update missing symbol")
		}
		ev.Asset = &snap

	case EventCycleComplete:
		var cc CycleComplete
		if err := json.Unmarshal(env.Data, &cc); err != nil {
			return Event{}, fmt.Errorf("decode cycle_complete: %w", err)
		}
		ev.Cycle = &cc

	case EventCountdown:
		var cd Countdown
		if err := json.Unmarshal(env.Data, &cd); err != nil {
			return Event{}, fmt.Errorf("decode countdown: %w", err)
		}
		ev.Countdown = &cd

	case EventStatus:
		var st Status
		if err := json.Unmarshal(env.Data, &st); err != nil {
			return Event{}, fmt.Errorf("decode status: %w", err)
		}
		ev.Status = &st

	case EventLog:
		var lm LogMessage
		if err := json.Unmarshal(env.Data, &lm); err != nil {
			return Event{}, fmt.Errorf("decode log: %w", err)
		}
		ev.Log = &lm

	case EventReset, EventHeartbeat:
		// no payload

	default:
		return Event{}, fmt.Errorf("unknown event type %q", env.Type)
	}

	return ev, nil
}
