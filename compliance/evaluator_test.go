package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	required := []string{"owner", "env", "cost-center"}

	tests := []struct {
		name string
		tags map[string]string
		want TagVerdict
	}{
		{
			name: "all present",
			tags: map[string]string{"owner": "alice", "env": "prod", "cost-center": "42"},
			want: TagVerdict{"owner": Present, "env": Present, "cost-center": Present},
		},
		{
			name: "nil tags all missing",
			tags: nil,
			want: TagVerdict{"owner": Missing, "env": Missing, "cost-center": Missing},
		},
		{
			name: "empty value is missing",
			tags: map[string]string{"owner": "", "env": "prod"},
			want: TagVerdict{"owner": Missing, "env": Present, "cost-center": Missing},
		},
		{
			name: "extra tags ignored",
			tags: map[string]string{"owner": "bob", "Name": "web-1"},
			want: TagVerdict{"owner": Present, "env": Missing, "cost-center": Missing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.tags, required))
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	required := []string{"owner", "env"}
	tags := map[string]string{"owner": "alice"}

	first := Evaluate(tags, required)
	second := Evaluate(tags, required)
	assert.Equal(t, first, second)
}

func TestTagVerdict_Compliant(t *testing.T) {
	assert.True(t, TagVerdict{"owner": Present}.Compliant())
	assert.True(t, TagVerdict{}.Compliant())
	assert.False(t, TagVerdict{"owner": Present, "env": Missing}.Compliant())
}

func TestTagVerdict_MissingKeys(t *testing.T) {
	tv := Evaluate(map[string]string{"env": "prod"}, []string{"owner", "env", "team"})
	assert.Equal(t, []string{"owner", "team"}, tv.MissingKeys([]string{"owner", "env", "team"}))
}

func TestTagsFromMap(t *testing.T) {
	assert.Empty(t, TagsFromMap(nil))

	got := TagsFromMap(map[string]string{"owner": "alice", "": "dropped"})
	assert.Equal(t, map[string]string{"owner": "alice"}, got)
}

func TestTagsFromPairs(t *testing.T) {
	got := TagsFromPairs([]KeyValue{
		{Key: "owner", Value: "alice"},
		{Key: "owner", Value: "bob"},
		{Key: "", Value: "dropped"},
		{Key: "env", Value: ""},
	})
	assert.Equal(t, map[string]string{"owner": "bob", "env": ""}, got)
}

func TestTagsFromWrappedPairs(t *testing.T) {
	got := TagsFromWrappedPairs([]WrappedKeyValue{
		{Data: KeyValue{Key: "owner", Value: "alice"}},
		{Data: KeyValue{Key: "env", Value: "prod"}},
	})
	assert.Equal(t, map[string]string{"owner": "alice", "env": "prod"}, got)
}
