package config

import (
	"fmt"
	"strings"
)

// Environment selects where a library or file is used.
type Environment int

const (
	// All includes the asset locally and on the CDN.
	All Environment = iota
	// Local includes the asset only when the app serves local files.
	// Deployments never bundle it.
	Local
	// Production includes the asset only in CDN bundles.
	Production
)

// String returns the manifest spelling of e.
func (e Environment) String() string {
	switch e {
	case Local:
		return "local"
	case Production:
		return "production"
	default:
		return "all"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Environment) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Matching is
// case-insensitive and an empty value means All.
func (e *Environment) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "all":
		*e = All
	case "local", "localonly":
		*e = Local
	case "production", "productiononly":
		*e = Production
	default:
		return fmt.Errorf("unknown environment %q (want all, local or production)", string(text))
	}
	return nil
}
