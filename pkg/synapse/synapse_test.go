package synapse

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/Robogera/pitchtrack/pkg/person"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWithoutBall(t *testing.T) {
	payload, err := json.Marshal(NewRecord(3, 0.1, nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"frame":3,"timestamp":0.1,"players":[],"ball":null}`, string(payload))
}

func TestCommandPayload(t *testing.T) {
	ball := image.Pt(40, 50)
	r := NewRecord(12, 0.4, []*person.Exported{{Id: 7, Position: [2]int{10, 20}}}, &ball)
	payload, err := NewCommand(1, "pitchtrack", "tracking/live", &r).ToPayload()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 1, "sender": "pitchtrack", "type": "tracking", "subject": "tracking/live",
		"message": {"record": {
			"frame": 12, "timestamp": 0.4,
			"players": [{"id": 7, "position": [10, 20]}],
			"ball": [40, 50]
		}}
	}`, string(payload))
}
