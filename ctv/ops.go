// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package ctv

// Equal reports whether a and b are the same value, including integer width
// and float width.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case Int:
		b, ok := b.(Int)
		return ok && a == b
	case Uint:
		b, ok := b.(Uint)
		return ok && a == b
	case Float:
		b, ok := b.(Float)
		return ok && a.Bits == b.Bits && (a.V == b.V || (a.V != a.V && b.V != b.V))
	case Bool:
		b, ok := b.(Bool)
		return ok && a == b
	case String:
		b, ok := b.(String)
		return ok && a == b
	case Array:
		b, ok := b.(Array)
		return ok && equalList(a, b)
	case Tuple:
		b, ok := b.(Tuple)
		return ok && equalList(a, b)
	case *Struct:
		b, ok := b.(*Struct)
		if !ok || a.Name != b.Name || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !Equal(a.Fields[i].Value, b.Fields[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func equalList(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// IsComplete reports whether v has no uninitialized part.
func IsComplete(v Value) bool {
	switch v := v.(type) {
	case nil:
		return false
	case Array:
		for _, e := range v {
			if !IsComplete(e) {
				return false
			}
		}
	case Tuple:
		for _, e := range v {
			if !IsComplete(e) {
				return false
			}
		}
	case *Struct:
		if v == nil {
			return false
		}
		for _, f := range v.Fields {
			if !IsComplete(f.Value) {
				return false
			}
		}
	}
	return true
}

// Copy returns a deep copy of composite values. Scalars are returned as is.
func Copy(v Value) Value {
	switch v := v.(type) {
	case Array:
		out := make(Array, len(v))
		for i, e := range v {
			out[i] = Copy(e)
		}
		return out
	case Tuple:
		out := make(Tuple, len(v))
		for i, e := range v {
			out[i] = Copy(e)
		}
		return out
	case *Struct:
		out := &Struct{Name: v.Name, Fields: make([]Field, len(v.Fields))}
		for i, f := range v.Fields {
			out.Fields[i] = Field{Name: f.Name, Value: Copy(f.Value)}
		}
		return out
	}
	return v
}

// Less orders two scalars of the same kind. Values of different kinds are
// ordered by kind.
func Less(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return a.Kind() < b.Kind()
	}
	switch a := a.(type) {
	case Int:
		return a.V < b.(Int).V
	case Uint:
		return a.V < b.(Uint).V
	case Float:
		return a.V < b.(Float).V
	case Bool:
		return !bool(a) && bool(b.(Bool))
	case String:
		return a < b.(String)
	}
	return a.String() < b.String()
}
