//
// Copyright 2019 Insolar Technologies GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package binder

import (
	"reflect"

	"github.com/pkg/errors"
)

// UpdateCheck decides whether a props change requires a new subscription.
type UpdateCheck[P any] interface {
	NeedsUpdate(oldProps, newProps P) bool
}

// CheckFunc is authoritative: nothing else is compared.
type CheckFunc[P any] func(oldProps, newProps P) bool

func (f CheckFunc[P]) NeedsUpdate(oldProps, newProps P) bool {
	return f(oldProps, newProps)
}

// PropNames compares exactly the named fields of P with shallow equality.
// Comparable values are compared with ==, pointers, maps, slices, funcs and
// channels by identity. An empty list never asks for an update.
type PropNames[P any] []string

func (names PropNames[P]) NeedsUpdate(oldProps, newProps P) bool {
	ov := indirect(reflect.ValueOf(oldProps))
	nv := indirect(reflect.ValueOf(newProps))
	for _, name := range names {
		if !shallowEqual(field(ov, name), field(nv, name)) {
			return true
		}
	}
	return false
}

// validate rejects names that are not exported fields of a struct P. Names of
// map props are only known at comparison time.
func (names PropNames[P]) validate() error {
	t := reflect.TypeOf((*P)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	for _, name := range names {
		f, ok := t.FieldByName(name)
		if !ok {
			return errors.Errorf("%s has no field %q", t, name)
		}
		if !f.IsExported() {
			return errors.Errorf("field %q of %s is not exported", name, t)
		}
	}
	return nil
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func field(v reflect.Value, name string) reflect.Value {
	switch {
	case !v.IsValid():
		return reflect.Value{}
	case v.Kind() == reflect.Struct:
		return v.FieldByName(name)
	case v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String:
		return v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
	}
	return reflect.Value{}
}

func shallowEqual(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Kind() == reflect.Interface {
		a = a.Elem()
	}
	if b.Kind() == reflect.Interface {
		b = b.Elem()
	}
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if a.Kind() == reflect.Slice && a.Len() != b.Len() {
			return false
		}
		return a.Pointer() == b.Pointer()
	}
	if a.Type().Comparable() && a.CanInterface() && b.CanInterface() {
		return safeEqual(a.Interface(), b.Interface())
	}
	return false
}

// safeEqual treats values that panic on == (structs holding slices behind an
// interface) as different.
func safeEqual(a, b interface{}) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
