package continuation

import (
	"encoding"
	"encoding/gob"
	"fmt"
	"reflect"
)

var (
	gobEncoderType    = reflect.TypeOf((*gob.GobEncoder)(nil)).Elem()
	binaryMarshalType = reflect.TypeOf((*encoding.BinaryMarshaler)(nil)).Elem()
)

// fieldError is a validation failure at a captured value path
type fieldError struct {
	path    string
	message string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.path, e.message)
}

// validator walks a captured value and rejects anything outside the
// allow-list: channels, funcs, unsafe pointers, structs with unexported
// state, cyclic pointers and interface values of unregistered types.
type validator struct {
	visiting map[uintptr]bool
}

func validate(fn Fn) error {
	v := &validator{visiting: make(map[uintptr]bool)}
	return v.check(reflect.ValueOf(fn), "fn")
}

func (v *validator) check(val reflect.Value, path string) error {
	if !val.IsValid() {
		return nil
	}
	t := val.Type()

	if selfEncoding(t) {
		return nil
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return nil

	case reflect.Uintptr, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return &fieldError{path: path, message: fmt.Sprintf("%s values cannot be captured", t.Kind())}

	case reflect.Array, reflect.Slice:
		if t.Kind() == reflect.Slice && val.IsNil() {
			return nil
		}
		if plain(t.Elem()) {
			return nil
		}
		for i := 0; i < val.Len(); i++ {
			elem := val.Index(i)
			if elem.Kind() == reflect.Pointer && elem.IsNil() {
				return &fieldError{path: fmt.Sprintf("%s[%d]", path, i), message: "nil pointer elements cannot be captured"}
			}
			if err := v.check(elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		if val.IsNil() {
			return nil
		}
		iter := val.MapRange()
		for iter.Next() {
			key := iter.Key()
			elemPath := fmt.Sprintf("%s[%v]", path, key.Interface())
			if err := v.check(key, elemPath+"(key)"); err != nil {
				return err
			}
			value := iter.Value()
			if value.Kind() == reflect.Pointer && value.IsNil() {
				return &fieldError{path: elemPath, message: "nil pointer map values cannot be captured"}
			}
			if err := v.check(value, elemPath); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		exported := 0
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			fieldPath := path + "." + field.Name
			if !field.IsExported() {
				return &fieldError{path: fieldPath, message: fmt.Sprintf("%s holds unexported state and cannot be captured", t)}
			}
			exported++
			if droppedPointer(val.Field(i)) {
				return &fieldError{path: fieldPath, message: "pointers to zero values cannot be captured, they decode as nil"}
			}
			if err := v.check(val.Field(i), fieldPath); err != nil {
				return err
			}
		}
		if exported == 0 {
			return &fieldError{path: path, message: fmt.Sprintf("%s has no exported fields to capture", t)}
		}
		return nil

	case reflect.Pointer:
		if val.IsNil() {
			return nil
		}
		addr := val.Pointer()
		if v.visiting[addr] {
			return &fieldError{path: path, message: "cyclic references cannot be captured"}
		}
		v.visiting[addr] = true
		defer delete(v.visiting, addr)
		return v.check(val.Elem(), path)

	case reflect.Interface:
		if val.IsNil() {
			return nil
		}
		concrete := val.Elem()
		if concrete.Kind() == reflect.Pointer && concrete.IsNil() {
			return &fieldError{path: path, message: "nil pointer variants cannot be captured"}
		}
		kind, exact := registeredExactly(concrete.Type())
		if kind == "" {
			return &fieldError{path: path, message: fmt.Sprintf("variant %s is not registered", concrete.Type())}
		}
		if !exact {
			return &fieldError{path: path, message: fmt.Sprintf("variant %s is registered as %q in a different form", concrete.Type(), kind)}
		}
		return v.check(concrete, path)
	}

	return &fieldError{path: path, message: fmt.Sprintf("unsupported kind %s", t.Kind())}
}

// droppedPointer reports a non-nil pointer struct field whose target gob
// omits as a zero value. Such a field arrives as nil.
func droppedPointer(field reflect.Value) bool {
	if field.Kind() != reflect.Pointer || field.IsNil() {
		return false
	}
	target := field
	for target.Kind() == reflect.Pointer {
		if target.IsNil() {
			return true
		}
		target = target.Elem()
	}
	if selfEncoding(target.Type()) {
		return target.IsZero()
	}
	switch target.Kind() {
	case reflect.Struct, reflect.Array:
		return false
	case reflect.Slice, reflect.String:
		return target.Len() == 0
	case reflect.Map, reflect.Interface:
		return target.IsNil()
	}
	return target.IsZero()
}

// selfEncoding reports types that serialize themselves
func selfEncoding(t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return false
	}
	if t.Implements(gobEncoderType) || t.Implements(binaryMarshalType) {
		return true
	}
	pt := reflect.PointerTo(t)
	return pt.Implements(gobEncoderType) || pt.Implements(binaryMarshalType)
}

// plain reports element types that need no per-element inspection
func plain(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}
