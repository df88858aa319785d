package class

import "reflect"

// Clone deep-copies a property struct pointer. Object references are copied
// shallowly (they point at other live objects) and transient fields are reset
// to their zero value.
func Clone(props any) any {
	src := reflect.ValueOf(props)
	if src.Kind() != reflect.Pointer || src.IsNil() {
		return props
	}
	dst := reflect.New(src.Elem().Type())
	copyValue(dst.Elem(), src.Elem())
	return dst.Interface()
}

func copyValue(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Struct:
		if isTextual(src.Type()) {
			dst.Set(src)
			return
		}
		transient := transientIndexes(src.Type())
		for i := range src.NumField() {
			if !dst.Field(i).CanSet() {
				continue
			}
			if transient[i] {
				continue
			}
			copyValue(dst.Field(i), src.Field(i))
		}
	case reflect.Slice:
		if src.IsNil() {
			return
		}
		out := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		for i := range src.Len() {
			copyValue(out.Index(i), src.Index(i))
		}
		dst.Set(out)
	case reflect.Array:
		for i := range src.Len() {
			copyValue(dst.Index(i), src.Index(i))
		}
	case reflect.Map:
		if src.IsNil() {
			return
		}
		out := reflect.MakeMapWithSize(src.Type(), src.Len())
		iter := src.MapRange()
		for iter.Next() {
			elem := reflect.New(src.Type().Elem()).Elem()
			copyValue(elem, iter.Value())
			out.SetMapIndex(iter.Key(), elem)
		}
		dst.Set(out)
	default:
		dst.Set(src)
	}
}

// transientIndexes marks direct fields tagged prefab:"transient".
func transientIndexes(t reflect.Type) map[int]bool {
	var out map[int]bool
	for i := range t.NumField() {
		if t.Field(i).Tag.Get("prefab") == "transient" {
			if out == nil {
				out = make(map[int]bool)
			}
			out[i] = true
		}
	}
	return out
}
