// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package variant

import (
	"strconv"

	"github.com/samber/oops"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hostbind/hostbind/pkg/sys"
)

// ToProto exports v as a protobuf Value for tooling output.
//
// The mapping is lossy: integers become JSON numbers, vectors and colors
// become lists, objects become {"class": "Object", "id": "<id>"} and
// dictionary keys are stringified.
func (v Variant) ToProto() *structpb.Value {
	switch v.typ {
	case sys.VariantNil:
		return structpb.NewNullValue()
	case sys.VariantBool:
		return structpb.NewBoolValue(v.val.(bool))
	case sys.VariantInt:
		return structpb.NewNumberValue(float64(v.val.(int64)))
	case sys.VariantFloat:
		return structpb.NewNumberValue(v.val.(float64))
	case sys.VariantString, sys.VariantStringName:
		return structpb.NewStringValue(v.String())
	case sys.VariantVector2:
		vec := v.val.(Vector2)
		return numberList(float64(vec.X), float64(vec.Y))
	case sys.VariantVector3:
		vec := v.val.(Vector3)
		return numberList(float64(vec.X), float64(vec.Y), float64(vec.Z))
	case sys.VariantColor:
		c := v.val.(Color)
		return numberList(float64(c.R), float64(c.G), float64(c.B), float64(c.A))
	case sys.VariantObject:
		ref := v.val.(objectRef)
		if ref.ptr == 0 {
			return structpb.NewNullValue()
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"class": structpb.NewStringValue("Object"),
			"id":    structpb.NewStringValue(strconv.FormatUint(ref.id, 10)),
		}})
	case sys.VariantArray:
		arr := v.val.(*Array)
		values := make([]*structpb.Value, arr.Len())
		for i, e := range arr.elems {
			values[i] = e.ToProto()
		}
		return structpb.NewListValue(&structpb.ListValue{Values: values})
	case sys.VariantDictionary:
		fields := make(map[string]*structpb.Value)
		v.val.(*Dictionary).Each(func(k, val Variant) bool {
			fields[k.String()] = val.ToProto()
			return true
		})
		return structpb.NewStructValue(&structpb.Struct{Fields: fields})
	case sys.VariantPackedByteArray:
		return structpb.NewStringValue(string(v.val.([]byte)))
	case sys.VariantPackedInt64Array:
		ints := v.val.([]int64)
		values := make([]*structpb.Value, len(ints))
		for i, n := range ints {
			values[i] = structpb.NewNumberValue(float64(n))
		}
		return structpb.NewListValue(&structpb.ListValue{Values: values})
	case sys.VariantPackedFloat64Array:
		return numberList(v.val.([]float64)...)
	case sys.VariantPackedStringArray:
		strs := v.val.([]string)
		values := make([]*structpb.Value, len(strs))
		for i, s := range strs {
			values[i] = structpb.NewStringValue(s)
		}
		return structpb.NewListValue(&structpb.ListValue{Values: values})
	default:
		return structpb.NewStringValue(v.String())
	}
}

func numberList(nums ...float64) *structpb.Value {
	values := make([]*structpb.Value, len(nums))
	for i, n := range nums {
		values[i] = structpb.NewNumberValue(n)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// FromProto imports a protobuf Value. Numbers become floats, lists become
// arrays and structs become dictionaries keyed by String.
func FromProto(pv *structpb.Value) (Variant, error) {
	if pv == nil {
		return Nil(), nil
	}
	switch kind := pv.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return Nil(), nil
	case *structpb.Value_BoolValue:
		return Bool(kind.BoolValue), nil
	case *structpb.Value_NumberValue:
		return Float(kind.NumberValue), nil
	case *structpb.Value_StringValue:
		return String(kind.StringValue), nil
	case *structpb.Value_ListValue:
		arr := NewArray()
		for _, e := range kind.ListValue.GetValues() {
			ev, err := FromProto(e)
			if err != nil {
				arr.release()
				return Variant{}, err
			}
			arr.Append(ev)
		}
		return FromArray(arr), nil
	case *structpb.Value_StructValue:
		dict := NewDictionary()
		fields := kind.StructValue.GetFields()
		for _, k := range sortedKeys(fields) {
			ev, err := FromProto(fields[k])
			if err != nil {
				dict.release()
				return Variant{}, err
			}
			_ = dict.Set(String(k), ev)
		}
		return FromDictionary(dict), nil
	default:
		return Variant{}, oops.In("variant").
			Code("PROTO_UNSUPPORTED").
			Errorf("unsupported protobuf value kind %T", kind)
	}
}
