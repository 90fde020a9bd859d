package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	yaml "gopkg.in/yaml.v3"
)

// ParseError is returned when profile text is not an object at all. Problems
// with individual keys are reported as ParseWarnings instead.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("profile text is not an object: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseWarning records a key that was missing or malformed and fell back to
// its default.
type ParseWarning struct {
	Field  string
	Reason string
}

func (w ParseWarning) String() string { return w.Field + ": " + w.Reason }

// field describes one key of the interchange document. Generate, Parse and
// Validate all walk the same table, so every key is written, read and
// checked the same way. Defaults come from Default.
type field struct {
	key     string
	aliases []string
	get     func(p *Profile) any
	set     func(p *Profile, v any) error
	check   check
	fields  []field
}

func (f field) checked(c check) field {
	f.check = c
	return f
}

var schema = buildSchema()

func buildSchema() []field {
	fs := []field{
		{
			key:     "metadata",
			aliases: []string{"_metadata"},
			fields: []field{
				stringField("version", func(p *Profile) *string { return &p.Metadata.Version }).checked(notBlank),
				stringField("description", func(p *Profile) *string { return &p.Metadata.Description }).checked(notBlank),
				stringField("lastUpdated", func(p *Profile) *string { return &p.Metadata.LastUpdated }).checked(notBlank),
			},
		},
		stringField("device_name", func(p *Profile) *string { return &p.DeviceName }).checked(notBlank),
	}
	for pin := Pin(0); pin < NumPins; pin++ {
		pin := pin
		fs = append(fs, stringField(pin.String(), func(p *Profile) *string { return &p.Pins[pin] }).checked(gpioLine))
	}
	for led := LED(0); led < NumLEDs; led++ {
		led := led
		fs = append(fs, intField(led.String(), func(p *Profile) *int { return &p.LEDs[led] }).checked(ledIndex))
	}
	return append(fs,
		stringField("hat_mode", func(p *Profile) *string { return (*string)(&p.HatMode) }).
			checked(oneOf("must be dpad or joystick", string(HatDPad), string(HatJoystick))),
		floatField("led_brightness", func(p *Profile) *float64 { return &p.LEDBrightness }).checked(unitInterval),
		uintField("whammy_min", func(p *Profile) *uint32 { return &p.WhammyMin }).checked(belowWhammyMax),
		uintField("whammy_max", func(p *Profile) *uint32 { return &p.WhammyMax }),
		boolField("whammy_reverse", func(p *Profile) *bool { return &p.WhammyReverse }),
		boolField("tilt_wave_enabled", func(p *Profile) *bool { return &p.TiltWaveEnabled }),
		colorsField("led_color", func(p *Profile) *[NumLEDs]string { return &p.LEDColor }).checked(hexColors),
		colorsField("released_color", func(p *Profile) *[NumLEDs]string { return &p.ReleasedColor }).checked(hexColors),
		stringField("usb_mode", func(p *Profile) *string { return &p.USBMode }).
			checked(oneOf("must be hid or xinput", USBModeHID, USBModeXInput)),
	)
}

func stringField(key string, ptr func(*Profile) *string) field {
	return field{
		key: key,
		get: func(p *Profile) any { return *ptr(p) },
		set: func(p *Profile, v any) error {
			s, ok := v.(string)
			if !ok {
				return wrongType("string", v)
			}
			*ptr(p) = s
			return nil
		},
	}
}

func intField(key string, ptr func(*Profile) *int) field {
	return field{
		key: key,
		get: func(p *Profile) any { return int64(*ptr(p)) },
		set: func(p *Profile, v any) error {
			n, ok := toInt64(v)
			if !ok || n < math.MinInt32 || n > math.MaxInt32 {
				return wrongType("integer", v)
			}
			*ptr(p) = int(n)
			return nil
		},
	}
}

func uintField(key string, ptr func(*Profile) *uint32) field {
	return field{
		key: key,
		get: func(p *Profile) any { return int64(*ptr(p)) },
		set: func(p *Profile, v any) error {
			n, ok := toInt64(v)
			if !ok || n < 0 || n > math.MaxUint32 {
				return wrongType("unsigned 32-bit integer", v)
			}
			*ptr(p) = uint32(n)
			return nil
		},
	}
}

func floatField(key string, ptr func(*Profile) *float64) field {
	return field{
		key: key,
		get: func(p *Profile) any { return *ptr(p) },
		set: func(p *Profile, v any) error {
			f, ok := toFloat64(v)
			if !ok {
				return wrongType("number", v)
			}
			*ptr(p) = f
			return nil
		},
	}
}

func boolField(key string, ptr func(*Profile) *bool) field {
	return field{
		key: key,
		get: func(p *Profile) any { return *ptr(p) },
		set: func(p *Profile, v any) error {
			b, ok := v.(bool)
			if !ok {
				return wrongType("boolean", v)
			}
			*ptr(p) = b
			return nil
		},
	}
}

func colorsField(key string, ptr func(*Profile) *[NumLEDs]string) field {
	return field{
		key: key,
		get: func(p *Profile) any {
			c := *ptr(p)
			return c[:]
		},
		set: func(p *Profile, v any) error {
			if ss, ok := v.([]string); ok {
				v = toAnySlice(ss)
			}
			list, ok := v.([]any)
			if !ok {
				return wrongType("array", v)
			}
			if len(list) != int(NumLEDs) {
				return fmt.Errorf("want %d entries, got %d", NumLEDs, len(list))
			}
			var out [NumLEDs]string
			for i, item := range list {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("entry %d: %w", i, wrongType("string", item))
				}
				out[i] = s
			}
			*ptr(p) = out
			return nil
		},
	}
}

func wrongType(want string, v any) error {
	return fmt.Errorf("want %s, got %T", want, v)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toInt64(f)
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// entry is one key/value of a generated document.
type entry struct {
	Key   string
	Value any
}

// document is an object that keeps its keys in schema order.
type document []entry

func (d document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(e.Key)
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d document) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range d {
		var v yaml.Node
		if err := v.Encode(e.Value); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Key, err)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: e.Key}, &v)
	}
	return n, nil
}

func (d document) toMap() map[string]any {
	m := make(map[string]any, len(d))
	for _, e := range d {
		if sub, ok := e.Value.(document); ok {
			m[e.Key] = sub.toMap()
			continue
		}
		m[e.Key] = e.Value
	}
	return m
}

func buildDocument(p *Profile, fields []field) document {
	d := make(document, 0, len(fields))
	for _, f := range fields {
		if f.fields != nil {
			d = append(d, entry{Key: f.key, Value: buildDocument(p, f.fields)})
			continue
		}
		d = append(d, entry{Key: f.key, Value: f.get(p)})
	}
	return d
}

// Generate renders p as indented interchange JSON.
func Generate(p Profile) []byte {
	out, err := json.MarshalIndent(buildDocument(&p, schema), "", "  ")
	if err != nil {
		// Every schema value is a string, number, bool or string slice.
		panic(err)
	}
	return out
}

// Parse reads interchange JSON. Missing or malformed keys keep their default
// value and are reported as warnings; unknown keys are ignored. An error is
// returned only when text is not a single JSON object.
func Parse(text []byte) (Profile, []ParseWarning, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Profile{}, nil, &ParseError{Err: err}
	}
	if raw == nil {
		return Profile{}, nil, &ParseError{Err: errors.New("null")}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Profile{}, nil, &ParseError{Err: errors.New("trailing data after object")}
	}
	p, warnings := fromMap(raw)
	return p, warnings, nil
}

func fromMap(raw map[string]any) (Profile, []ParseWarning) {
	p := Default()
	var warnings []ParseWarning
	applyFields(&p, schema, raw, "", &warnings)
	return p, warnings
}

func applyFields(p *Profile, fields []field, raw map[string]any, prefix string, warnings *[]ParseWarning) {
	for _, f := range fields {
		path := prefix + f.key
		v, ok := lookup(raw, f)
		if !ok {
			*warnings = append(*warnings, ParseWarning{Field: path, Reason: "missing, using default"})
			continue
		}
		if f.fields != nil {
			sub, ok := v.(map[string]any)
			if !ok {
				*warnings = append(*warnings, ParseWarning{Field: path, Reason: wrongType("object", v).Error()})
				continue
			}
			applyFields(p, f.fields, sub, path+".", warnings)
			continue
		}
		if err := f.set(p, v); err != nil {
			*warnings = append(*warnings, ParseWarning{Field: path, Reason: err.Error()})
		}
	}
}

func lookup(raw map[string]any, f field) (any, bool) {
	if v, ok := raw[f.key]; ok {
		return v, true
	}
	for _, alias := range f.aliases {
		if v, ok := raw[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
