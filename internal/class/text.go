package class

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"cogentcore.org/core/base/reflectx"
)

// NoneText is the exported text of an unset object reference.
const NoneText = "None"

func (x *value) ExportText() string {
	return exportText(x.v, x.shape)
}

func (x *value) ImportText(text string) error {
	switch x.shape {
	case ShapeObject:
		return x.importObject(text)
	case ShapeStruct, ShapeArray:
		return fmt.Errorf("importing %s into %s: %w", x.shape, x.TypeName(), ErrNotScalar)
	}
	if !x.v.CanSet() {
		return fmt.Errorf("importing into %s: %w", x.TypeName(), ErrUnassignable)
	}
	return importScalar(x.v, text)
}

func (x *value) importObject(text string) error {
	if text == "" || text == NoneText {
		return x.SetObject(nil)
	}
	if x.resolver == nil {
		return fmt.Errorf("resolving %q: %w", text, ErrUnresolvedRef)
	}
	o, ok := x.resolver.ResolveObject(text)
	if !ok {
		return fmt.Errorf("resolving %q: %w", text, ErrUnresolvedRef)
	}
	return x.SetObject(o)
}

func exportText(v reflect.Value, shape Shape) string {
	switch shape {
	case ShapeObject:
		if v.IsNil() {
			return NoneText
		}
		if o, ok := v.Interface().(Object); ok {
			return o.PathName()
		}
		return NoneText
	case ShapeStruct:
		var b strings.Builder
		b.WriteByte('(')
		first := true
		for _, f := range fieldsOf(v.Type()) {
			if f.Transient {
				continue
			}
			if !first {
				b.WriteByte(',')
			}
			first = false
			b.WriteString(f.Name)
			b.WriteByte('=')
			b.WriteString(nestedText(v.FieldByIndex(f.index), f.Shape))
		}
		b.WriteByte(')')
		return b.String()
	case ShapeArray:
		var b strings.Builder
		b.WriteByte('(')
		for i := range v.Len() {
			if i > 0 {
				b.WriteByte(',')
			}
			ev := v.Index(i)
			b.WriteString(nestedText(ev, shapeOf(ev.Type())))
		}
		b.WriteByte(')')
		return b.String()
	}
	return exportScalar(v)
}

// nestedText quotes strings so composite text stays unambiguous.
func nestedText(v reflect.Value, shape Shape) string {
	if shape == ShapeScalar && v.Kind() == reflect.String && !isTextual(v.Type()) {
		return strconv.Quote(v.String())
	}
	return exportText(v, shape)
}

func exportScalar(v reflect.Value) string {
	if m, ok := textMarshaler(v); ok {
		text, err := m.MarshalText()
		if err != nil {
			return ""
		}
		return string(text)
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Map:
		if v.IsNil() {
			return ""
		}
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return ""
		}
		return string(data)
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return NoneText
		}
	}
	return reflectx.ToString(v.Interface())
}

func importScalar(v reflect.Value, text string) error {
	if v.CanAddr() {
		if u, ok := v.Addr().Interface().(encoding.TextUnmarshaler); ok {
			if err := u.UnmarshalText([]byte(text)); err != nil {
				return fmt.Errorf("importing %q into %s: %w", text, v.Type(), err)
			}
			return nil
		}
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(text)
		return nil
	case reflect.Map:
		fresh := reflect.New(v.Type())
		if text != "" {
			if err := json.Unmarshal([]byte(text), fresh.Interface()); err != nil {
				return fmt.Errorf("importing %q into %s: %w", text, v.Type(), err)
			}
		}
		v.Set(fresh.Elem())
		return nil
	}
	if !v.CanAddr() {
		return fmt.Errorf("importing into %s: %w", v.Type(), ErrUnassignable)
	}
	if err := reflectx.SetRobust(v.Addr().Interface(), text); err != nil {
		return fmt.Errorf("importing %q into %s: %w", text, v.Type(), err)
	}
	return nil
}

func textMarshaler(v reflect.Value) (encoding.TextMarshaler, bool) {
	if m, ok := v.Interface().(encoding.TextMarshaler); ok {
		return m, true
	}
	if v.CanAddr() {
		if m, ok := v.Addr().Interface().(encoding.TextMarshaler); ok {
			return m, true
		}
	}
	return nil, false
}
