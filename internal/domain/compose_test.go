package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveIdentity(t *testing.T) {
	tests := []struct {
		name                 string
		first, last, trustee string
		want                 string
		wantStatus           IdentityStatus
	}{
		{"both names", "Jane", "Doe", "", "Jane Doe", IdentityFound},
		{"names win over trustee", "Jane", "Doe", "W1AW", "Jane Doe", IdentityFound},
		{"club call", "", "ARRL HQ", "W1AW", "W1AW", IdentityTrustee},
		{"first only falls to trustee", "Jane", "", "K1ABC", "K1ABC", IdentityTrustee},
		{"nothing", "", "", "", NotFound, IdentityNotFound},
		{"whitespace only", "  ", " ", "\t", NotFound, IdentityNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ResolveIdentity(tt.first, tt.last, tt.trustee)
			assert.Equal(t, tt.want, id.String())
			assert.Equal(t, tt.wantStatus, id.Status)
		})
	}
}

func TestLookupFailure(t *testing.T) {
	id := LookupFailure(500, "Internal Server Error")
	assert.Equal(t, IdentityError, id.Status)
	assert.Equal(t, "ERROR: 500: Internal Server Error", id.String())
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{3 * time.Minute, "03:00"},
		{4*time.Minute + 7*time.Second + 900*time.Millisecond, "04:07"},
		{75 * time.Minute, "75:00"},
		{-30 * time.Second, "00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, formatAge(tt.in))
		})
	}
}

func TestComposeBatch(t *testing.T) {
	s := testSpot(1, RegionUSHI, ModeFT8, 3*time.Minute)
	enriched := []EnrichedSpot{
		{Spot: s, Identity: ResolveIdentity("Jane", "Doe", ""), Band: ClassifyBand(s.Frequency)},
		{
			Spot:     Spot{Location: RegionUSRI, Mode: ModeFT4, Reference: "US-2065", Activator: "W1AW", SiteName: "Lincoln Woods", SpotTime: testNow.Add(-4*time.Minute - 5*time.Second)},
			Identity: LookupFailure(500, "Internal Server Error"),
			Band:     ClassifyBand(146520),
		},
	}

	b := ComposeBatch(enriched, testNow)

	assert.False(t, b.Empty())
	assert.Equal(t, []string{
		"[US-HI FT8 US-0001] KH6ABC, Jane Doe, was at Hawaii Volcanoes National Park on 20m (-03:00)",
		"[US-RI FT4 US-2065] W1AW, ERROR: 500: Internal Server Error, was at Lincoln Woods on [ERROR: Not Mapped]: 146520 (-04:05)",
	}, b.Lines)
	assert.Equal(t, b.Lines[0]+"\n\n"+b.Lines[1], b.Message())
}

func TestComposeBatchEmpty(t *testing.T) {
	b := ComposeBatch(nil, testNow)
	assert.True(t, b.Empty())
	assert.Empty(t, b.Message())
}
