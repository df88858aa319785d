package scene

import (
	"fmt"
	"strings"
)

// Mobility describes whether an object may move at runtime.
type Mobility int

const (
	MobilityStatic Mobility = iota
	MobilityStationary
	MobilityMovable
)

func (m Mobility) String() string {
	switch m {
	case MobilityStatic:
		return "Static"
	case MobilityStationary:
		return "Stationary"
	case MobilityMovable:
		return "Movable"
	default:
		return fmt.Sprintf("Mobility(%d)", int(m))
	}
}

func ParseMobility(s string) (Mobility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static", "":
		return MobilityStatic, nil
	case "stationary":
		return MobilityStationary, nil
	case "movable":
		return MobilityMovable, nil
	default:
		return MobilityStatic, fmt.Errorf("unknown mobility %q", s)
	}
}

func (m Mobility) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mobility) UnmarshalText(text []byte) error {
	parsed, err := ParseMobility(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Mobile is implemented by scene component properties.
type Mobile interface {
	GetMobility() Mobility
	SetMobility(Mobility)
}

// MostDynamic returns the more dynamic of a and b.
func MostDynamic(a, b Mobility) Mobility {
	if b > a {
		return b
	}
	return a
}
