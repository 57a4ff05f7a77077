package diffcov

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Inject assigns value to the named field of the struct target points to.
// Fields promoted from embedded structs are found as well. A nil value
// assigns the field's zero value.
//
// Any failure to locate or assign the field returns a
// *ConfigurationInjectionError naming it: the generator's shape is not what
// this package was written against, and a report scoped with stale settings
// would look correct while being wrong.
func Inject(target any, field string, value any) error {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return &ConfigurationInjectionError{Field: field, Err: errors.Newf("target %T is not a non-nil pointer", target)}
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return &ConfigurationInjectionError{Field: field, Err: errors.Newf("target %T does not point to a struct", target)}
	}

	sf, ok := v.Type().FieldByName(field)
	if !ok {
		return &ConfigurationInjectionError{Field: field, Err: errors.Newf("no such field on %s", v.Type())}
	}
	fv, err := v.FieldByIndexErr(sf.Index)
	if err != nil {
		return &ConfigurationInjectionError{Field: field, Err: errors.Wrap(err, "resolving embedded field")}
	}
	if !fv.CanSet() {
		return &ConfigurationInjectionError{Field: field, Err: errors.Newf("field on %s is not settable", v.Type())}
	}

	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(fv.Type()):
		fv.Set(rv)
	case rv.Kind() == fv.Kind() && rv.Type().ConvertibleTo(fv.Type()):
		fv.Set(rv.Convert(fv.Type()))
	default:
		return &ConfigurationInjectionError{Field: field, Err: errors.Newf("cannot assign %s to %s", rv.Type(), fv.Type())}
	}
	return nil
}
