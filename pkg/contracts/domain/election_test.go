package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWinner(t *testing.T) {
	tests := []struct {
		name   string
		shareA float64
		shareB float64
		want   Party
	}{
		{name: "party a strictly ahead", shareA: 60.0, shareB: 38.0, want: PartyDemocrat},
		{name: "party b strictly ahead", shareA: 40.1, shareB: 58.2, want: PartyRepublican},
		{name: "tie goes to party b", shareA: 49.5, shareB: 49.5, want: PartyRepublican},
		{name: "zero shares tie", shareA: 0, shareB: 0, want: PartyB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Winner(tt.shareA, tt.shareB))
		})
	}
}

func TestParseParty(t *testing.T) {
	p, ok := ParseParty(" democrat ")
	assert.True(t, ok)
	assert.Equal(t, PartyDemocrat, p)

	p, ok = ParseParty("Republican")
	assert.True(t, ok)
	assert.Equal(t, PartyRepublican, p)

	_, ok = ParseParty("Green")
	assert.False(t, ok)
}

func TestParseTerm(t *testing.T) {
	tests := []struct {
		in     string
		want   TermID
		wantOK bool
	}{
		{"interest_1", Term1, true},
		{"INTEREST_2", Term2, true},
		{"term_1", Term1, true},
		{"term_3", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseTerm(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRegionRecordValue(t *testing.T) {
	rec := RegionRecord{
		Abbreviation: "CA",
		Name:         "California",
		PartyAShare:  60,
		PartyBShare:  38,
		Interest1:    Float(45),
		Winner:       PartyDemocrat,
	}

	assert.Equal(t, 60.0, *rec.Value(ColumnPartyAShare))
	assert.Equal(t, 38.0, *rec.Value(ColumnPartyBShare))
	assert.Equal(t, 45.0, *rec.Value(ColumnInterest1))
	assert.Nil(t, rec.Value(ColumnInterest2))
	assert.Nil(t, rec.Interest(TermID("interest_9")))
	assert.Equal(t, 38.0, rec.Share(PartyRepublican))
}

func TestScaleFor(t *testing.T) {
	assert.Equal(t, ColorScaleBlues, ScaleFor(ColumnPartyAShare))
	assert.Equal(t, ColorScaleReds, ScaleFor(ColumnPartyBShare))
	assert.Equal(t, ColorScaleMint, ScaleFor(ColumnInterest1))
	assert.Equal(t, ColorScaleMint, ScaleFor(ColumnInterest2))
}
