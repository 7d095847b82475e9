package contrast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/deckforge/deckerr"
)

func TestFromHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
	}{
		{"0070C0", RGB{0, 112, 192}},
		{"#0070c0", RGB{0, 112, 192}},
		{"FFFFFF", White},
		{"#000000", Black},
		{" #7f7F7f ", RGB{127, 127, 127}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FromHex(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromHex_Invalid(t *testing.T) {
	for _, in := range []string{"", "#", "FFF", "#FFFFF", "FFFFFFF", "GGGGGG", "##FFFFFF", "12 456"} {
		t.Run(in, func(t *testing.T) {
			_, err := FromHex(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, deckerr.ErrInvalidColor)

			var e *deckerr.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "hex", e.Field)
			assert.Equal(t, in, e.Value)
			assert.NotEmpty(t, e.Allowed)
		})
	}
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#0070C0", RGB{0, 112, 192}.Hex())
	assert.Equal(t, "#FFFFFF", White.String())
}

func TestRelativeLuminance(t *testing.T) {
	assert.InDelta(t, 1.0, RelativeLuminance(White), 1e-9)
	assert.InDelta(t, 0.0, RelativeLuminance(Black), 1e-9)
	assert.InDelta(t, 0.2126, RelativeLuminance(RGB{255, 0, 0}), 1e-9)
	assert.InDelta(t, 0.7152, RelativeLuminance(RGB{0, 255, 0}), 1e-9)
	assert.InDelta(t, 0.0722, RelativeLuminance(RGB{0, 0, 255}), 1e-9)
}

func TestRatio_Properties(t *testing.T) {
	assert.InDelta(t, 21.0, Ratio(White, Black), 1e-9)
	assert.InDelta(t, 21.0, Ratio(Black, White), 1e-9)

	colors := []RGB{White, Black, {0, 112, 192}, {128, 128, 128}, {255, 0, 0}, {12, 200, 77}}
	for _, a := range colors {
		assert.InDelta(t, 1.0, Ratio(a, a), 1e-12, a.Hex())
		for _, b := range colors {
			r := Ratio(a, b)
			assert.Equal(t, r, Ratio(b, a), "%s/%s", a, b)
			assert.GreaterOrEqual(t, r, 1.0)
			assert.LessOrEqual(t, r, 21.0+1e-9)
		}
	}
}

func TestRatio_Scenario(t *testing.T) {
	c, err := FromHex("0070C0")
	require.NoError(t, err)
	assert.Equal(t, RGB{0, 112, 192}, c)
	assert.InDelta(t, 5.15, Ratio(c, White), 0.01)

	// Mid grey sits near 4:1, which is enough only for large text.
	grey, err := FromHex("808080")
	require.NoError(t, err)
	assert.InDelta(t, 3.95, Ratio(grey, White), 0.01)
	assert.False(t, MeetsWCAG(grey, White, false))
	assert.True(t, MeetsWCAG(grey, White, true))
}

func TestMeetsWCAG_Thresholds(t *testing.T) {
	// #767676 is the lightest grey reaching 4.5:1 on white; #777777 misses it.
	assert.True(t, MeetsWCAG(RGB{118, 118, 118}, White, false))
	assert.False(t, MeetsWCAG(RGB{119, 119, 119}, White, false))

	// #969696 is just under 3:1.
	assert.False(t, MeetsWCAG(RGB{150, 150, 150}, White, true))
}

func TestMeetsLevel(t *testing.T) {
	blue := RGB{0, 112, 192}
	assert.True(t, MeetsLevel(blue, White, false, AA))
	assert.False(t, MeetsLevel(blue, White, false, AAA))
	assert.True(t, MeetsLevel(blue, White, true, AAA))
	assert.True(t, MeetsLevel(Black, White, false, AAA))

	assert.Equal(t, 4.5, AA.Threshold(false))
	assert.Equal(t, 3.0, AA.Threshold(true))
	assert.Equal(t, 7.0, AAA.Threshold(false))
	assert.Equal(t, 4.5, AAA.Threshold(true))
	assert.Equal(t, "AA", AA.String())
	assert.Equal(t, "AAA", AAA.String())
}

func TestIsLargeText(t *testing.T) {
	tests := []struct {
		pt   float64
		bold bool
		want bool
	}{
		{12, false, false},
		{17.9, false, false},
		{18, false, true},
		{24, false, true},
		{13.9, true, false},
		{14, true, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLargeText(tt.pt, tt.bold), "%gpt bold=%v", tt.pt, tt.bold)
	}
}

func TestCheck(t *testing.T) {
	r, err := Check("#808080", "FFFFFF", false)
	require.NoError(t, err)
	assert.Equal(t, "#808080", r.FG)
	assert.Equal(t, "#FFFFFF", r.BG)
	assert.False(t, r.PassesAA)
	assert.False(t, r.PassesAAA)

	r, err = Check("000000", "ffffff", true)
	require.NoError(t, err)
	assert.True(t, r.PassesAA)
	assert.True(t, r.PassesAAA)
	assert.True(t, r.LargeText)

	_, err = Check("000000", "white", false)
	assert.ErrorIs(t, err, deckerr.ErrInvalidColor)
	_, err = Check("nope", "FFFFFF", false)
	assert.ErrorIs(t, err, deckerr.ErrInvalidColor)
}
