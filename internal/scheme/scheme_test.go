package scheme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	assert.Equal(t, ARK, Of("ark:/99999/fk4x1y2z"))
	assert.Equal(t, DOI, Of("doi:10.5072/FK2X"))
	assert.Equal(t, UUID, Of("uuid:f81d4fae-7dec-11d0-a765-00a0c91e6bf6"))
	assert.Equal(t, "", Of("urn:nbn:de:1234-5678"))
	assert.Equal(t, "", Of(""))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{
			name: "ark lowercased",
			in:   "ark:/99999/FK4X1Y2Z",
			want: "ark:/99999/fk4x1y2z",
		},
		{
			name: "ark already canonical",
			in:   "ark:/99166/p92z12p14",
			want: "ark:/99166/p92z12p14",
		},
		{
			name: "doi suffix uppercased",
			in:   "doi:10.5072/fk2x1y2z",
			want: "doi:10.5072/FK2X1Y2Z",
		},
		{
			name: "uppercase scheme accepted",
			in:   "ARK:/99999/FK4ABC",
			want: "ark:/99999/fk4abc",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  ark:/99999/fk4x1y2z\n",
			want: "ark:/99999/fk4x1y2z",
		},
		{
			name: "uuid urn canonicalized",
			in:   "uuid:F81D4FAE-7DEC-11D0-A765-00A0C91E6BF6",
			want: "uuid:f81d4fae-7dec-11d0-a765-00a0c91e6bf6",
		},
		{
			name:    "ark without name part rejected",
			in:      "ark:/99999",
			wantErr: ErrMalformed,
		},
		{
			name:    "ark with empty name rejected",
			in:      "ark:/99999/",
			wantErr: ErrMalformed,
		},
		{
			name:    "doi without directory prefix rejected",
			in:      "doi:11.5072/FK2",
			wantErr: ErrMalformed,
		},
		{
			name:    "doi without suffix rejected",
			in:      "doi:10.5072",
			wantErr: ErrMalformed,
		},
		{
			name:    "invalid uuid rejected",
			in:      "uuid:not-a-uuid",
			wantErr: ErrMalformed,
		},
		{
			name:    "unknown scheme rejected",
			in:      "handle:4263537/4000",
			wantErr: ErrUnknownScheme,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShadowArks(t *testing.T) {
	assert.True(t, IsShadowArk("ark:/b5072/fk2x1y2z"))
	assert.True(t, IsShadowArk("ark:/b5072.1/fk2x"))
	assert.False(t, IsShadowArk("ark:/99999/fk4x1y2z"))
	assert.False(t, IsShadowArk("ark:/b/x"), "naan needs digits after b")
	assert.False(t, IsShadowArk("ark:/bad1/x"), "letters after b are not a registrant")
	assert.False(t, IsShadowArk("doi:10.5072/FK2"))

	shadow, err := DOIToShadow("doi:10.5072/FK2X1Y2Z")
	require.NoError(t, err)
	assert.Equal(t, "ark:/b5072/fk2x1y2z", shadow)

	doi, err := ShadowToDOI(shadow)
	require.NoError(t, err)
	assert.Equal(t, "doi:10.5072/FK2X1Y2Z", doi)

	_, err = DOIToShadow("ark:/99999/fk4")
	assert.Error(t, err)

	_, err = ShadowToDOI("ark:/99999/fk4")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestIsTest(t *testing.T) {
	assert.True(t, IsTest("ark:/99999/fk4x1y2z"))
	assert.True(t, IsTest("doi:10.5072/FK2X"))
	assert.True(t, IsTest("doi:10.15072/FK2X"))
	assert.False(t, IsTest("ark:/99166/p92z12p14"))
	assert.False(t, IsTest("doi:10.1234/REAL"))
}

func TestURLForm(t *testing.T) {
	assert.Equal(t, "https://n2t.net/ark:/99999/fk4x1y2z", URLForm("ark:/99999/fk4x1y2z"))
	assert.Equal(t, "https://doi.org/10.5072/FK2X", URLForm("doi:10.5072/FK2X"))
	assert.Equal(t, "[None]", URLForm("uuid:f81d4fae-7dec-11d0-a765-00a0c91e6bf6"))
}

func TestTargetURLs(t *testing.T) {
	base := "https://pid.example.org/"
	assert.Equal(t,
		"https://pid.example.org/id/ark:/99999/fk4x1y2z",
		DefaultTargetURL(base, "ark:/99999/fk4x1y2z"))
	assert.Equal(t,
		"https://pid.example.org/tombstone/id/ark:/99999/fk4x1y2z",
		TombstoneTargetURL(base, "ark:/99999/fk4x1y2z"))
}
