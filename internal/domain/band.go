package domain

import (
	"fmt"
	"strconv"
)

// BandName is the name of an amateur radio band.
type BandName string

// HF bands covered by the classifier.
const (
	BandUnmapped BandName = ""
	Band160m     BandName = "160m"
	Band80m      BandName = "80m"
	Band60m      BandName = "60m"
	Band40m      BandName = "40m"
	Band30m      BandName = "30m"
	Band20m      BandName = "20m"
	Band17m      BandName = "17m"
	Band15m      BandName = "15m"
	Band12m      BandName = "12m"
	Band10m      BandName = "10m"
)

// bandRange is an inclusive [Low, High] range in kHz.
type bandRange struct {
	Low  float64
	High float64
	Name BandName
}

// hfBands is deliberately wide: it only has to tell bands apart, not police
// the band plan.
var hfBands = []bandRange{
	{1800, 2000, Band160m},
	{3500, 4000, Band80m},
	{5300, 5500, Band60m},
	{7000, 7300, Band40m},
	{10100, 10150, Band30m},
	{14000, 14350, Band20m},
	{18000, 18200, Band17m},
	{21000, 21450, Band15m},
	{24800, 25000, Band12m},
	{28000, 29700, Band10m},
}

func init() {
	if err := checkBandTable(hfBands); err != nil {
		panic(err)
	}
}

// checkBandTable verifies every range is well formed and no two overlap.
func checkBandTable(table []bandRange) error {
	for i, a := range table {
		if a.Low > a.High {
			return fmt.Errorf("band %s: low %g above high %g", a.Name, a.Low, a.High)
		}
		for _, b := range table[i+1:] {
			if a.Low <= b.High && b.Low <= a.High {
				return fmt.Errorf("band %s [%g, %g] overlaps %s [%g, %g]", a.Name, a.Low, a.High, b.Name, b.Low, b.High)
			}
		}
	}
	return nil
}

// Band is the classification of a frequency. An unmapped Band still carries
// the frequency so it can be reported.
type Band struct {
	Name      BandName `json:"name,omitempty"`
	Frequency float64  `json:"frequency_khz"`
}

// Mapped reports whether the frequency fell inside a known band.
func (b Band) Mapped() bool { return b.Name != BandUnmapped }

func (b Band) String() string {
	if !b.Mapped() {
		return "[ERROR: Not Mapped]: " + strconv.FormatFloat(b.Frequency, 'f', -1, 64)
	}
	return string(b.Name)
}

// ClassifyBand maps a frequency in kHz to its HF band. Frequencies outside
// every band (VHF, experimental, typos) yield an unmapped Band, not an error.
func ClassifyBand(freqKHz float64) Band {
	for _, r := range hfBands {
		if r.Low <= freqKHz && freqKHz <= r.High {
			return Band{Name: r.Name, Frequency: freqKHz}
		}
	}
	return Band{Name: BandUnmapped, Frequency: freqKHz}
}
