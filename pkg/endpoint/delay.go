package endpoint

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"gopkg.in/yaml.v3"
)

// Delay is a response delay in milliseconds. It deserialises from either a
// bare number (fixed delay) or an object {"min": n, "max": m} (uniform
// random delay in [min, max]).
type Delay struct {
	Fixed int
	Min   int
	Max   int
	Range bool
}

// FixedDelay returns a fixed delay of ms milliseconds.
func FixedDelay(ms int) *Delay {
	return &Delay{Fixed: ms}
}

// RangeDelay returns a uniform random delay between min and max milliseconds.
func RangeDelay(min, max int) *Delay {
	return &Delay{Min: min, Max: max, Range: true}
}

// Duration resolves the delay to a concrete duration, sampling the range
// uniformly when one is configured. Negative values resolve to zero.
func (d *Delay) Duration() time.Duration {
	ms := d.Fixed
	if d.Range {
		ms = d.Min
		if span := d.Max - d.Min; span > 0 {
			ms += rand.IntN(span + 1)
		}
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

// UnmarshalJSON accepts a number or a {min,max} object.
func (d *Delay) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Delay{Fixed: int(n)}
		return nil
	}

	var obj struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("delay must be a number of milliseconds or a {min,max} object")
	}
	*d = Delay{Min: int(obj.Min), Max: int(obj.Max), Range: true}
	return nil
}

// MarshalJSON emits the same shape the delay was configured with.
func (d Delay) MarshalJSON() ([]byte, error) {
	if d.Range {
		return json.Marshal(map[string]int{"min": d.Min, "max": d.Max})
	}
	return json.Marshal(d.Fixed)
}

// UnmarshalYAML accepts a scalar number or a {min,max} mapping.
func (d *Delay) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var n float64
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("delay must be a number of milliseconds or a {min,max} mapping")
		}
		*d = Delay{Fixed: int(n)}
		return nil
	}

	var obj struct {
		Min float64 `yaml:"min"`
		Max float64 `yaml:"max"`
	}
	if err := value.Decode(&obj); err != nil {
		return fmt.Errorf("delay must be a number of milliseconds or a {min,max} mapping")
	}
	*d = Delay{Min: int(obj.Min), Max: int(obj.Max), Range: true}
	return nil
}

// MarshalYAML emits the same shape the delay was configured with.
func (d Delay) MarshalYAML() (any, error) {
	if d.Range {
		return map[string]int{"min": d.Min, "max": d.Max}, nil
	}
	return d.Fixed, nil
}
