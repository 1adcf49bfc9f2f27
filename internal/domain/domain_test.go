package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystem, RoleTool} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("narrator").Valid())
	assert.False(t, Role("").Valid())
}

func TestNewTurn(t *testing.T) {
	turn := NewTurn(RoleUser, "hello")
	assert.Equal(t, RoleUser, turn.Role)
	assert.Equal(t, "hello", turn.Content)
	assert.Empty(t, turn.ID)
	assert.True(t, turn.Timestamp.IsZero())
}

func TestSessionOrDefault(t *testing.T) {
	assert.Equal(t, "default", SessionOrDefault(""))
	assert.Equal(t, "s1", SessionOrDefault("s1"))
}

func TestTurnJSON(t *testing.T) {
	data, err := json.Marshal(Turn{ID: "t1", Role: RoleAssistant, Content: "hi"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"role":"assistant"`)
	assert.Contains(t, string(data), `"id":"t1"`)
}

func TestQuestionDecode(t *testing.T) {
	raw := `{"questionNo":1,"question":"What is 2+2?","options":{"A":"3","B":"4","C":"5","D":"6"},"correctAnswer":"B","explanation":"Basic arithmetic."}`
	var q Question
	require.NoError(t, json.Unmarshal([]byte(raw), &q))
	assert.Equal(t, 1, q.QuestionNo)
	assert.Equal(t, "4", q.Options["B"])
	assert.Equal(t, "B", q.CorrectAnswer)
	assert.True(t, q.Complete())
}

func TestQuestionComplete(t *testing.T) {
	full := map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"}
	tests := []struct {
		name string
		q    Question
		want bool
	}{
		{"complete", Question{Question: "q", Options: full, CorrectAnswer: "C"}, true},
		{"no text", Question{Options: full, CorrectAnswer: "C"}, false},
		{"answer outside options", Question{Question: "q", Options: full, CorrectAnswer: "E"}, false},
		{"three options", Question{Question: "q", Options: map[string]string{"A": "a", "B": "b", "C": "c"}, CorrectAnswer: "A"}, false},
		{"wrong labels", Question{Question: "q", Options: map[string]string{"A": "a", "B": "b", "C": "c", "E": "e"}, CorrectAnswer: "A"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Complete())
		})
	}
}
