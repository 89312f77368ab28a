package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerKey_UnmarshalJSON(t *testing.T) {
	var keys []AnswerKey
	err := json.Unmarshal([]byte(`["Paris", ["cat", "cats"], []]`), &keys)
	require.NoError(t, err)
	require.Len(t, keys, 3)

	assert.False(t, keys[0].IsAnyOf())
	assert.Equal(t, "Paris", keys[0].Value())

	assert.True(t, keys[1].IsAnyOf())
	assert.Equal(t, []string{"cat", "cats"}, keys[1].Options())

	assert.True(t, keys[2].IsAnyOf())
	assert.Empty(t, keys[2].Options())

	out, err := json.Marshal(keys)
	require.NoError(t, err)
	assert.JSONEq(t, `["Paris", ["cat", "cats"], []]`, string(out))
}

func TestAnswerKey_UnmarshalJSON_Invalid(t *testing.T) {
	var key AnswerKey
	assert.Error(t, json.Unmarshal([]byte(`42`), &key))
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &key))
	assert.Error(t, json.Unmarshal([]byte(`{"a": "b"}`), &key))
}

func TestAnswer_UnmarshalJSON(t *testing.T) {
	var answers []Answer
	err := json.Unmarshal([]byte(`["A", null, ["x", "y"], ""]`), &answers)
	require.NoError(t, err)
	require.Len(t, answers, 4)

	assert.Equal(t, []string{"A"}, answers[0].Tokens)
	assert.Nil(t, answers[1].Tokens)
	assert.Equal(t, []string{"x", "y"}, answers[2].Tokens)
	assert.Equal(t, []string{""}, answers[3].Tokens)

	out, err := json.Marshal(answers)
	require.NoError(t, err)
	assert.JSONEq(t, `["A", null, ["x", "y"], ""]`, string(out))
}

func TestSubmission_RejectsNonArrayAnswers(t *testing.T) {
	var sub Submission
	err := json.Unmarshal([]byte(`{"questionId": "q", "answers": "A"}`), &sub)
	assert.Error(t, err)
}
