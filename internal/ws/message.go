package ws

import (
	"encoding/json"
	"fmt"
)

// Client -> Server message types
const (
	MsgAim    uint8 = 0x01
	MsgLaunch uint8 = 0x02
	MsgReset  uint8 = 0x03
	MsgPing   uint8 = 0x04
)

// Server -> Client message types
const (
	MsgState        uint8 = 0x81
	MsgSessionStart uint8 = 0x82
	MsgEpisodeOver  uint8 = 0x83
	MsgHit          uint8 = 0x84
	MsgPong         uint8 = 0x86
)

type Message struct {
	Type    uint8           `json:"type"`
	Tick    uint32          `json:"tick"`
	Payload json.RawMessage `json:"payload"`
}

type AimPayload struct {
	Dir int8 `json:"dir"` // -1 lower, +1 raise
}

type PingPayload struct {
	ClientTime uint64 `json:"clientTime"`
}

type PongPayload struct {
	ClientTime uint64 `json:"clientTime"`
	ServerTime uint64 `json:"serverTime"`
}

// SessionStartPayload carries the static scene so the renderer can draw props
// once instead of every tick.
type SessionStartPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Scene     any    `json:"scene"`
}

type HitPayload struct {
	Target     int `json:"target"`
	ScoreDelta int `json:"scoreDelta"`
	Score      int `json:"score"`
}

type EpisodeOverPayload struct {
	Episode int `json:"episode"`
	Score   int `json:"score"`
	Hits    int `json:"hits"`
	Ticks   int `json:"ticks"`
}

func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func Decode(data []byte) (Message, error) {
	var msg Message
	if len(data) == 0 {
		return msg, fmt.Errorf("decode: empty frame")
	}
	err := json.Unmarshal(data, &msg)
	return msg, err
}

func NewMessage(typ uint8, tick uint32, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:    typ,
		Tick:    tick,
		Payload: json.RawMessage(data),
	}, nil
}

// DecodePayload unmarshals msg.Payload into T.
func DecodePayload[T any](msg Message) (T, error) {
	var out T
	if len(msg.Payload) == 0 {
		return out, fmt.Errorf("empty payload for message type 0x%02x", msg.Type)
	}
	err := json.Unmarshal(msg.Payload, &out)
	return out, err
}
