package domain

import (
	"fmt"
	"strings"
)

// Mode is the transmission mode reported for a spot.
type Mode string

// Modes that interest criteria may name.
const (
	ModeSSB  Mode = "SSB"
	ModeFT4  Mode = "FT4"
	ModeFT8  Mode = "FT8"
	ModeCW   Mode = "CW"
	ModeC4FM Mode = "C4FM"
)

// Known reports whether m is one of the declared Mode constants.
func (m Mode) Known() bool {
	switch m {
	case ModeSSB, ModeFT4, ModeFT8, ModeCW, ModeC4FM:
		return true
	}
	return false
}

// ParseMode converts free text such as "ft8" into a known Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Known() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}
