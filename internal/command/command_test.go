package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaAcceptsWellFormedEntry(t *testing.T) {
	var entry any
	require.NoError(t, json.Unmarshal([]byte(`{"name":"approve_topic","params":{"topic_id":1},"description":"тест сдан"}`), &entry))
	assert.NoError(t, Schema().Validate(entry))

	require.NoError(t, json.Unmarshal([]byte(`{"name":"switch_to_next_expert","params":{}}`), &entry))
	assert.NoError(t, Schema().Validate(entry), "description is optional")
}

func TestSchemaRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"missing name":   `{"params":{}}`,
		"empty name":     `{"name":"","params":{}}`,
		"params string":  `{"name":"x","params":"login=a"}`,
		"missing params": `{"name":"x"}`,
		"extra key":      `{"name":"x","params":{},"next_expert":"teacher"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var entry any
			require.NoError(t, json.Unmarshal([]byte(raw), &entry))
			assert.Error(t, Schema().Validate(entry))
		})
	}
}

func TestSchemaJSONIsEmbeddable(t *testing.T) {
	js := SchemaJSON()
	assert.Contains(t, js, `"name"`)
	assert.Contains(t, js, `"params"`)
	assert.NotContains(t, js, `"$id"`)
}

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var p ChangeContentParams
	require.NoError(t, json.Unmarshal([]byte(`{"topic_id":"7","block_id":8,"chapter_id":" 9 "}`), &p))
	assert.Equal(t, ID(7), *p.TopicID)
	assert.Equal(t, ID(8), *p.BlockID)
	assert.Equal(t, ID(9), *p.ChapterID)

	assert.Error(t, json.Unmarshal([]byte(`{"topic_id":"seven"}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"topic_id":1.5}`), &p))
}

func TestStringListAcceptsStringOrList(t *testing.T) {
	var l StringList
	require.NoError(t, json.Unmarshal([]byte(`"рекурсия"`), &l))
	assert.Equal(t, StringList{"рекурсия"}, l)
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &l))
	assert.Equal(t, StringList{"a", "b"}, l)
	require.NoError(t, json.Unmarshal([]byte(`""`), &l))
	assert.Empty(t, l)
	assert.Error(t, json.Unmarshal([]byte(`42`), &l))
}

func TestMalformedCommandErrorUnwraps(t *testing.T) {
	err := malformed(LoginStudent, "login is required")
	var mce *MalformedCommandError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, LoginStudent, mce.Command)
	assert.Contains(t, err.Error(), "login is required")
}
