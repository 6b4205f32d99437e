package domain

import (
	"fmt"
	"strings"
)

// Region is a POTA location code. The constants below are the US states and
// DC; spots from elsewhere keep their raw code and never match criteria.
type Region string

// US states and DC.
const (
	RegionUSAL Region = "US-AL"
	RegionUSAK Region = "US-AK"
	RegionUSAZ Region = "US-AZ"
	RegionUSAR Region = "US-AR"
	RegionUSCA Region = "US-CA"
	RegionUSCO Region = "US-CO"
	RegionUSCT Region = "US-CT"
	RegionUSDE Region = "US-DE"
	RegionUSFL Region = "US-FL"
	RegionUSGA Region = "US-GA"
	RegionUSHI Region = "US-HI"
	RegionUSID Region = "US-ID"
	RegionUSIL Region = "US-IL"
	RegionUSIN Region = "US-IN"
	RegionUSIA Region = "US-IA"
	RegionUSKS Region = "US-KS"
	RegionUSKY Region = "US-KY"
	RegionUSLA Region = "US-LA"
	RegionUSME Region = "US-ME"
	RegionUSMD Region = "US-MD"
	RegionUSMA Region = "US-MA"
	RegionUSMI Region = "US-MI"
	RegionUSMN Region = "US-MN"
	RegionUSMS Region = "US-MS"
	RegionUSMO Region = "US-MO"
	RegionUSMT Region = "US-MT"
	RegionUSNE Region = "US-NE"
	RegionUSNV Region = "US-NV"
	RegionUSNH Region = "US-NH"
	RegionUSNJ Region = "US-NJ"
	RegionUSNM Region = "US-NM"
	RegionUSNY Region = "US-NY"
	RegionUSNC Region = "US-NC"
	RegionUSND Region = "US-ND"
	RegionUSOH Region = "US-OH"
	RegionUSOK Region = "US-OK"
	RegionUSOR Region = "US-OR"
	RegionUSPA Region = "US-PA"
	RegionUSRI Region = "US-RI"
	RegionUSSC Region = "US-SC"
	RegionUSSD Region = "US-SD"
	RegionUSTN Region = "US-TN"
	RegionUSTX Region = "US-TX"
	RegionUSUT Region = "US-UT"
	RegionUSVT Region = "US-VT"
	RegionUSVA Region = "US-VA"
	RegionUSWA Region = "US-WA"
	RegionUSWV Region = "US-WV"
	RegionUSWI Region = "US-WI"
	RegionUSWY Region = "US-WY"
	RegionUSDC Region = "US-DC"
)

// Known reports whether r is one of the declared Region constants.
func (r Region) Known() bool {
	switch r {
	case RegionUSAL, RegionUSAK, RegionUSAZ, RegionUSAR, RegionUSCA, RegionUSCO,
		RegionUSCT, RegionUSDE, RegionUSFL, RegionUSGA, RegionUSHI, RegionUSID,
		RegionUSIL, RegionUSIN, RegionUSIA, RegionUSKS, RegionUSKY, RegionUSLA,
		RegionUSME, RegionUSMD, RegionUSMA, RegionUSMI, RegionUSMN, RegionUSMS,
		RegionUSMO, RegionUSMT, RegionUSNE, RegionUSNV, RegionUSNH, RegionUSNJ,
		RegionUSNM, RegionUSNY, RegionUSNC, RegionUSND, RegionUSOH, RegionUSOK,
		RegionUSOR, RegionUSPA, RegionUSRI, RegionUSSC, RegionUSSD, RegionUSTN,
		RegionUSTX, RegionUSUT, RegionUSVT, RegionUSVA, RegionUSWA, RegionUSWV,
		RegionUSWI, RegionUSWY, RegionUSDC:
		return true
	}
	return false
}

// ParseRegion converts a location code such as "us-hi" into a known Region.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Known() {
		return "", fmt.Errorf("unknown region %q", s)
	}
	return r, nil
}
