package gemini

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeListing(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: `{"name":"Berry Bliss Tart","description":"Flaky crust."}`, want: "Berry Bliss Tart"},
		{name: "extra fields", in: `{"confidence":0.9,"name":" Tart ","description":"Sweet.","tags":["a"]}`, want: "Tart"},
		{name: "code fence", in: "```json\n{\"name\":\"Tart\",\"description\":\"Sweet.\"}\n```", want: "Tart"},
		{name: "missing description", in: `{"name":"Tart"}`, wantErr: true},
		{name: "not an object", in: `["Tart"]`, wantErr: true},
		{name: "garbage", in: `I think this is a tart`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeListing([]byte(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
			assert.NotEmpty(t, got.Description)
		})
	}
}

func TestDecodeSuggestions(t *testing.T) {
	got, err := decodeSuggestions([]byte(`[
		{"name":"Rye","description":"Dense.","price":8.25,"imageSeed":"rye"},
		{"name":"Bagel","description":"Chewy.","price":"$3.50","imageSeed":""},
		{"name":"","description":"dropped","price":1,"imageSeed":"x"},
		{"name":"Pretzel","description":"Salty.","price":null,"imageSeed":"pretzel","extra":{"a":1}}
	]`))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.True(t, decimal.RequireFromString("8.25").Equal(got[0].Price))
	assert.True(t, decimal.RequireFromString("3.50").Equal(got[1].Price))
	assert.Equal(t, "", got[1].ImageSeed)
	assert.True(t, got[2].Price.IsZero())
	assert.Equal(t, "pretzel", got[2].ImageSeed)
}

func TestDecodeSuggestionsErrors(t *testing.T) {
	for _, in := range []string{
		`[]`,
		`{"name":"Rye"}`,
		`[{"name":"Rye","price":"cheap"}]`,
		`[{"name":"Rye",`,
	} {
		_, err := decodeSuggestions([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestTrimPayload(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(trimPayload([]byte("  {\"a\":1}\n"))))
	assert.Equal(t, `[1]`, string(trimPayload([]byte("```json\n[1]\n```"))))
	assert.Equal(t, `[1]`, string(trimPayload([]byte("```\n[1]```"))))
}
