package bulk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var searchRunIDPattern = regexp.MustCompile(`^\d+$`)

// PK is an ordered mapping of arbitrary form keys to record identifiers
type PK struct {
	keys   []string
	values []string
	index  map[string]int
}

// NewPK builds a PK from parallel key/value slices, preserving order
func NewPK(pairs ...string) PK {
	var pk PK
	for i := 0; i+1 < len(pairs); i += 2 {
		pk.Set(pairs[i], pairs[i+1])
	}
	return pk
}

// PKFromMap builds a PK from a Go map. Keys are ordered naturally: numeric keys
// numerically and before any non-numeric keys, which sort lexically.
func PKFromMap(m map[string]string) PK {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })
	var pk PK
	for _, k := range keys {
		pk.Set(k, m[k])
	}
	return pk
}

// Set appends or replaces the value for key
func (p *PK) Set(key, value string) {
	// the index may be shared with a copy, so positions are checked
	if i, ok := p.index[key]; ok && i < len(p.keys) && p.keys[i] == key {
		p.values[i] = value
		return
	}
	if p.index == nil {
		p.index = make(map[string]int)
	}
	p.index[key] = len(p.keys)
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
}

// Len returns the number of entries
func (p PK) Len() int { return len(p.keys) }

// Values returns the record identifiers in mapping order
func (p PK) Values() []string {
	out := make([]string, len(p.values))
	copy(out, p.values)
	return out
}

// UnmarshalJSON decodes a JSON object keeping document order. Values may be
// strings or numbers.
func (p *PK) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = PK{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("pk must be a JSON object")
	}
	var pk PK
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		switch v := raw.(type) {
		case string:
			pk.Set(key, v)
		case json.Number:
			pk.Set(key, v.String())
		default:
			return fmt.Errorf("pk value for %q must be a string or number", key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = pk
	return nil
}

// MarshalJSON encodes the mapping in order
func (p PK) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(p.values[i])
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Params are the target-selection parameters of a bulk submission
type Params struct {
	SearchRunID string `json:"search_run_id,omitempty"`
	PK          PK     `json:"pk"`
}

// HasSearchRun reports whether a well-formed search run id is present
func (p Params) HasSearchRun() bool {
	return searchRunIDPattern.MatchString(strings.TrimSpace(p.SearchRunID))
}

// SearchRun returns the parsed search run id
func (p Params) SearchRun() (int64, error) {
	if !p.HasSearchRun() {
		return 0, NewInvalidRequestError("search_run_id")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(p.SearchRunID), 10, 64)
	if err != nil {
		return 0, NewInvalidRequestError("search_run_id")
	}
	return id, nil
}

// Malformed lists the parameters that prevent the request from being routed
func (p Params) Malformed() []string {
	var bad []string
	if p.SearchRunID != "" && !p.HasSearchRun() {
		bad = append(bad, "search_run_id")
	}
	if p.PK.Len() == 0 {
		bad = append(bad, "pk")
	}
	return bad
}

func naturalLess(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}
