package hcl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/recgrid/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// orderedAttributes returns the attributes of a body in source order.
// hclsyntax keeps them in a map, so the order is recovered from the ranges.
func orderedAttributes(body *hclsyntax.Body) []*hclsyntax.Attribute {
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})
	return attrs
}

// toAttribute converts an evaluated value. Collections become list
// attributes whose Value is the comma-joined form.
func toAttribute(name string, v cty.Value) (config.Attribute, error) {
	if v.IsNull() {
		return config.Attribute{Name: name}, nil
	}
	if !v.IsWhollyKnown() {
		return config.Attribute{}, fmt.Errorf("attribute %q has an unknown value", name)
	}

	ty := v.Type()
	if ty.IsListType() || ty.IsTupleType() || ty.IsSetType() {
		list := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			s, err := toString(elem)
			if err != nil {
				return config.Attribute{}, fmt.Errorf("attribute %q: %w", name, err)
			}
			list = append(list, s)
		}
		return config.Attribute{Name: name, Value: strings.Join(list, ","), List: list}, nil
	}

	s, err := toString(v)
	if err != nil {
		return config.Attribute{}, fmt.Errorf("attribute %q: %w", name, err)
	}
	return config.Attribute{Name: name, Value: s}, nil
}

func toString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	sv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("value of type %s cannot be used as a string", v.Type().FriendlyName())
	}
	return sv.AsString(), nil
}
