// Package synapse holds the per-frame tracking record and its
// delivery to subscribers over MQTT.
package synapse

import (
	"encoding/json"
	"image"

	"github.com/Robogera/pitchtrack/pkg/person"
)

// One entry of the tracking log
type Record struct {
	Frame     int                `json:"frame"`
	Timestamp float64            `json:"timestamp"`
	Players   []*person.Exported `json:"players"`
	Ball      *[2]int            `json:"ball"`
}

func NewRecord(frame int, timestamp float64, players []*person.Exported, ball *image.Point) Record {
	r := Record{Frame: frame, Timestamp: timestamp, Players: players}
	if r.Players == nil {
		r.Players = []*person.Exported{}
	}
	if ball != nil {
		r.Ball = &[2]int{ball.X, ball.Y}
	}
	return r
}

type Command struct {
	Id      uint     `json:"id"`
	Sender  string   `json:"sender"`
	Type    string   `json:"type"`
	Subject string   `json:"subject"`
	Message *Message `json:"message"`
}

type Message struct {
	Record *Record `json:"record"`
}

const CommandTypeTracking = "tracking"

func NewCommand(id uint, sender, subject string, r *Record) *Command {
	return &Command{
		Id:      id,
		Sender:  sender,
		Type:    CommandTypeTracking,
		Subject: subject,
		Message: &Message{Record: r},
	}
}

func (c *Command) ToPayload() ([]byte, error) {
	return json.Marshal(c)
}
