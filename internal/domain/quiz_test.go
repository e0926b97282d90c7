package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerSubmissionRequiresAnswerAndTime(t *testing.T) {
	var ok AnswerSubmission
	require.NoError(t, json.Unmarshal([]byte(`{"itemId":"FD-01","answer":"","elapsedSeconds":0}`), &ok))
	assert.Equal(t, AnswerSubmission{ItemID: "FD-01"}, ok, "explicit empty answer and zero time are kept")

	for name, body := range map[string]string{
		"no answer":   `{"itemId":"FD-01","elapsedSeconds":4}`,
		"no seconds":  `{"itemId":"FD-01","answer":"A"}`,
		"null answer": `{"itemId":"FD-01","answer":null,"elapsedSeconds":4}`,
	} {
		t.Run(name, func(t *testing.T) {
			var sub Submission
			err := json.Unmarshal([]byte(`{"attemptId":"a-1","answers":[`+body+`]}`), &sub)
			assert.Error(t, err)
		})
	}
}

func TestStrataMerged(t *testing.T) {
	strata := Strata{
		{Level: Level2NF, Count: 2},
		{Level: LevelFD, Count: 3},
		{Level: Level2NF, Count: 1},
	}
	assert.Equal(t, Strata{{Level: Level2NF, Count: 3}, {Level: LevelFD, Count: 3}}, strata.Merged())
	assert.Equal(t, 6, strata.Total())
	assert.Len(t, strata, 3, "input is left alone")
}
