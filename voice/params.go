package voice

import "math"

// Params holds the primitive settings of one component. Bools live in
// Flag only; numbers of any Go numeric kind are stored as float64.
type Params struct {
	Num  map[string]float64
	Str  map[string]string
	Flag map[string]bool
}

// ParseParams keeps the primitive values of raw and drops everything else
// (nested maps, slices, nil).
func ParseParams(raw map[string]any) Params {
	p := Params{
		Num:  map[string]float64{},
		Str:  map[string]string{},
		Flag: map[string]bool{},
	}
	for k, v := range raw {
		switch t := v.(type) {
		case float64:
			p.Num[k] = t
		case float32:
			p.Num[k] = float64(t)
		case int:
			p.Num[k] = float64(t)
		case int64:
			p.Num[k] = float64(t)
		case int32:
			p.Num[k] = float64(t)
		case uint:
			p.Num[k] = float64(t)
		case uint32:
			p.Num[k] = float64(t)
		case uint64:
			p.Num[k] = float64(t)
		case string:
			p.Str[k] = t
		case bool:
			p.Flag[k] = t
		}
	}
	return p
}

// Has reports whether key is present with any primitive type.
func (p Params) Has(key string) bool {
	if _, ok := p.Num[key]; ok {
		return true
	}
	if _, ok := p.Str[key]; ok {
		return true
	}
	_, ok := p.Flag[key]
	return ok
}

// LookupNum returns a finite numeric parameter.
func (p Params) LookupNum(key string) (float64, bool) {
	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if v, ok := p.LookupNum(key); ok {
		return v
	}
	return def
}

// GetStr returns a string parameter or def.
func (p Params) GetStr(key, def string) string {
	if v, ok := p.Str[key]; ok {
		return v
	}
	return def
}

// GetBool returns a boolean parameter or def.
func (p Params) GetBool(key string, def bool) bool {
	if v, ok := p.Flag[key]; ok {
		return v
	}
	return def
}

// Len returns the number of stored keys.
func (p Params) Len() int {
	return len(p.Num) + len(p.Str) + len(p.Flag)
}

// Merge returns a copy of p overlaid with the keys of o.
func (p Params) Merge(o Params) Params {
	out := Params{
		Num:  make(map[string]float64, len(p.Num)+len(o.Num)),
		Str:  make(map[string]string, len(p.Str)+len(o.Str)),
		Flag: make(map[string]bool, len(p.Flag)+len(o.Flag)),
	}
	for _, src := range []Params{p, o} {
		for k, v := range src.Num {
			out.deleteKey(k)
			out.Num[k] = v
		}
		for k, v := range src.Str {
			out.deleteKey(k)
			out.Str[k] = v
		}
		for k, v := range src.Flag {
			out.deleteKey(k)
			out.Flag[k] = v
		}
	}
	return out
}

func (p Params) deleteKey(k string) {
	delete(p.Num, k)
	delete(p.Str, k)
	delete(p.Flag, k)
}

// Map returns the params as a plain map, the inverse of ParseParams.
func (p Params) Map() map[string]any {
	out := make(map[string]any, p.Len())
	for k, v := range p.Num {
		out[k] = v
	}
	for k, v := range p.Str {
		out[k] = v
	}
	for k, v := range p.Flag {
		out[k] = v
	}
	return out
}
