// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package analysis

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gad-lang/semcore/diag"
	"github.com/gad-lang/semcore/program"
	"github.com/gad-lang/semcore/source"
)

// BoundaryPoint selects which side of a program boundary a context applies
// to. Exported functions are entered, external functions are exited into.
type BoundaryPoint int

const (
	EntryPoint BoundaryPoint = iota
	ExitPoint
)

func (p BoundaryPoint) String() string {
	if p == ExitPoint {
		return "exit"
	}
	return "entry"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *BoundaryPoint) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToLower(value.Value) {
	case "entry":
		*p = EntryPoint
	case "exit":
		*p = ExitPoint
	default:
		return fmt.Errorf("line %d: invalid boundary point %q", value.Line, value.Value)
	}
	return nil
}

// BoundaryMode is the per symbol context override of a backend.
type BoundaryMode int

const (
	// BoundaryDefault defers to the default context of the boundary point.
	BoundaryDefault BoundaryMode = iota
	BoundaryReentrant
	BoundaryNonReentrant
)

var boundaryModes = [...]string{
	BoundaryDefault:      "default",
	BoundaryReentrant:    "reentrant",
	BoundaryNonReentrant: "nonreentrant",
}

func (m BoundaryMode) String() string {
	if 0 <= m && int(m) < len(boundaryModes) {
		return boundaryModes[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *BoundaryMode) UnmarshalYAML(value *yaml.Node) error {
	for i, s := range boundaryModes {
		if strings.EqualFold(s, value.Value) {
			*m = BoundaryMode(i)
			return nil
		}
	}
	return fmt.Errorf("line %d: invalid boundary mode %q", value.Line, value.Value)
}

// UnmarshalYAML implements yaml.Unmarshaler. Contexts are written as R or N.
func (c *Context) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToUpper(value.Value) {
	case "R", "REENTRANT":
		*c = Reentrant
	case "N", "NONREENTRANT":
		*c = NonReentrant
	default:
		return fmt.Errorf("line %d: invalid context %q", value.Line, value.Value)
	}
	return nil
}

// Config is the reentrancy configuration supplied by a backend.
type Config struct {
	DefaultEntry Context
	DefaultExit  Context
	// BoundaryMode overrides the context of a single boundary symbol. A nil
	// function always returns BoundaryDefault.
	BoundaryMode func(sym *program.Symbol, point BoundaryPoint) BoundaryMode
}

// DefaultConfig enters exported functions non-reentrant and treats external
// functions as non-reentrant.
func DefaultConfig() Config {
	return Config{DefaultEntry: NonReentrant, DefaultExit: NonReentrant}
}

// Mode returns the override for sym.
func (c Config) Mode(sym *program.Symbol, point BoundaryPoint) BoundaryMode {
	if c.BoundaryMode == nil {
		return BoundaryDefault
	}
	return c.BoundaryMode(sym, point)
}

// Default returns the default context of point.
func (c Config) Default(point BoundaryPoint) Context {
	if point == ExitPoint {
		return c.DefaultExit
	}
	return c.DefaultEntry
}

type boundaryEntry struct {
	Symbol string        `yaml:"symbol"`
	Point  BoundaryPoint `yaml:"point"`
	Mode   BoundaryMode  `yaml:"mode"`
}

type configFile struct {
	Entry      *Context        `yaml:"entry"`
	Exit       *Context        `yaml:"exit"`
	Boundaries []boundaryEntry `yaml:"boundaries"`
}

type boundaryKey struct {
	symbol string
	point  BoundaryPoint
}

// LoadConfig reads a reentrancy configuration from YAML:
//
//	entry: R
//	exit: N
//	boundaries:
//	  - {symbol: tick, point: entry, mode: reentrant}
//	  - {symbol: log@0, point: exit, mode: nonreentrant}
//
// Omitted defaults keep the values of DefaultConfig. A boundary symbol is
// either a name or a name@instance label; labels take precedence.
func LoadConfig(r io.Reader) (Config, error) {
	var file configFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, diag.Configf(diag.ErrInvalidBoundary, source.FilePos{}, "",
			"cannot read reentrancy configuration: %v", err)
	}

	cfg := DefaultConfig()
	if file.Entry != nil {
		cfg.DefaultEntry = *file.Entry
	}
	if file.Exit != nil {
		cfg.DefaultExit = *file.Exit
	}
	if len(file.Boundaries) == 0 {
		return cfg, nil
	}

	modes := make(map[boundaryKey]BoundaryMode, len(file.Boundaries))
	for _, b := range file.Boundaries {
		if b.Symbol == "" {
			return Config{}, diag.Configf(diag.ErrInvalidBoundary, source.FilePos{}, "",
				"boundary without symbol")
		}
		k := boundaryKey{symbol: b.Symbol, point: b.Point}
		if old, ok := modes[k]; ok && old != b.Mode {
			return Config{}, diag.Configf(diag.ErrInvalidBoundary, source.FilePos{}, b.Symbol,
				"conflicting %s boundaries for %s: %s and %s", b.Point, b.Symbol, old, b.Mode)
		}
		modes[k] = b.Mode
	}
	cfg.BoundaryMode = func(sym *program.Symbol, point BoundaryPoint) BoundaryMode {
		if m, ok := modes[boundaryKey{symbol: sym.Label(), point: point}]; ok {
			return m
		}
		return modes[boundaryKey{symbol: sym.Name, point: point}]
	}
	return cfg, nil
}
