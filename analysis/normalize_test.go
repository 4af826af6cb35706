package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestNormalize_NeverFails(t *testing.T) {
	inputs := []any{
		nil,
		map[string]any{},
		[]any{1, 2, 3},
		"just a string",
		42,
		map[string]any{"tags": "cat", "description": 7, "colors": map[string]any{"a": 1}},
	}
	for _, in := range inputs {
		r := Normalize(in)
		assert.NotNil(t, r.Tags)
		assert.Equal(t, "", r.Description)
		assert.Equal(t, []string{"#000000", "#FFFFFF", "#808080"}, r.Colors)
		assert.Empty(t, r.Tags)
		assert.Equal(t, in, r.Raw)
	}
}

func TestNormalize_ColorSanitization(t *testing.T) {
	r := Normalize(map[string]any{
		"colors": []any{"ff00aa", "#12345", "#GGGGGG", " #abcdef ", 12},
	})
	assert.Equal(t, []string{"#FF00AA", "#ABCDEF", "#000000"}, r.Colors)
}

func TestNormalize_ColorsCappedAtThree(t *testing.T) {
	r := Normalize(map[string]any{
		"colors": []any{"#111111", "#222222", "#333333", "#444444"},
	})
	assert.Equal(t, []string{"#111111", "#222222", "#333333"}, r.Colors)
}

func TestNormalize_ColorPaddingDeduplicates(t *testing.T) {
	r := Normalize(map[string]any{"colors": []any{"#ffffff"}})
	assert.Equal(t, []string{"#FFFFFF", "#000000", "#808080"}, r.Colors)
}

func TestNormalize_TagsFromDescription(t *testing.T) {
	r := Normalize(decode(t, `{"tags": [], "description": "A red apple on a table", "colors": []}`))
	assert.Equal(t, []string{"a", "red", "apple", "on", "table"}, r.Tags)
	assert.Equal(t, "A red apple on a table", r.Description)
	assert.Equal(t, []string{"#000000", "#FFFFFF", "#808080"}, r.Colors)
}

func TestNormalize_TagPaddingStopsWhenWordsRunOut(t *testing.T) {
	r := Normalize(map[string]any{
		"tags":        []any{"cat"},
		"description": "Cat, sleeping!",
	})
	assert.Equal(t, []string{"cat", "sleeping"}, r.Tags)
}

func TestNormalize_TagPaddingKeepsHashAndDigits(t *testing.T) {
	r := Normalize(map[string]any{"description": "Room #42 - très calme"})
	assert.Equal(t, []string{"room", "#42", "trs", "calme"}, r.Tags)
}

func TestNormalize_TagObjectsAndCap(t *testing.T) {
	r := Normalize(decode(t, `{"tags": [
		{"name": "dog"}, {"tag": "park"}, {"label": "grass"}, {"name": "", "label": "sky"},
		{"score": 1}, 5, "tree", "bench", "sun", "cloud", "path", "kid", "ball"
	]}`))
	assert.Equal(t, []string{"dog", "park", "grass", "sky", "tree", "bench", "sun", "cloud", "path", "kid"}, r.Tags)
}

func TestNormalize_TypedInputs(t *testing.T) {
	r := Normalize(Result{
		Tags:        []string{"one", "two", "three", "four", "five", "six"},
		Description: "  spaced  ",
		Colors:      []string{"#aaaaaa"},
	})
	assert.Equal(t, []string{"one", "two", "three", "four", "five", "six"}, r.Tags)
	assert.Equal(t, "spaced", r.Description)
	assert.Equal(t, []string{"#AAAAAA", "#000000", "#FFFFFF"}, r.Colors)

	var nilResult *Result
	assert.Empty(t, Normalize(nilResult).Tags)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []any{
		nil,
		decode(t, `{"tags": ["a","a","b"], "description": "b c d e f g", "colors": ["#111111"]}`),
		decode(t, `{"tags": ["x","y","z","w","v","u","t"], "description": "", "colors": ["bad"]}`),
		decode(t, `{"tags": [], "description": "Hello, World", "colors": ["#111111","#111111","#111111"]}`),
		decode(t, `{"tags": ["a","b","c","d","e","f"], "description": "x", "colors": ["#111111","bad","#222222"]}`),
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(Result{Tags: once.Tags, Description: once.Description, Colors: once.Colors})
		assert.Equal(t, once.Tags, twice.Tags)
		assert.Equal(t, once.Description, twice.Description)
		assert.Equal(t, once.Colors, twice.Colors)

		// and through a JSON round trip, the way a stored result is read back
		b, err := json.Marshal(map[string]any{"tags": once.Tags, "description": once.Description, "colors": once.Colors})
		require.NoError(t, err)
		again := Normalize(decode(t, string(b)))
		assert.Equal(t, once.Tags, again.Tags)
		assert.Equal(t, once.Colors, again.Colors)
	}
}

func TestNormalize_SixTagStub(t *testing.T) {
	r := Normalize(map[string]any{
		"tags":        []any{"a", "b", "c", "d", "e", "f"},
		"description": "x",
		"colors":      []any{"#111111", "bad", "#222222"},
	})
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, r.Tags)
	assert.Equal(t, "x", r.Description)
	assert.Equal(t, []string{"#111111", "#222222", "#000000"}, r.Colors)
}
