package convert

import (
	"strings"

	"github.com/pkg/errors"
)

// Type identifies a conversion rule
type Type int

const (
	TypeString Type = iota + 1
	TypeInteger
	TypeFloat
	TypeBigDecimal
	TypeBoolean
	TypeDate
	TypeJoin
	TypeSplit
	TypePluckJoin
	TypePluckSplit
	TypeFunction
)

var typeNames = map[Type]string{
	TypeString:     "string",
	TypeInteger:    "integer",
	TypeFloat:      "float",
	TypeBigDecimal: "bigdecimal",
	TypeBoolean:    "boolean",
	TypeDate:       "date",
	TypeJoin:       "join",
	TypeSplit:      "split",
	TypePluckJoin:  "pluck_join",
	TypePluckSplit: "pluck_split",
	TypeFunction:   "function",
}

// String returns the tag of the type as used in configurations
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return "unknown"
}

// ParseType resolves a type tag, ignoring case and surrounding spaces
func ParseType(tag string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(tag))

	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}

	return 0, errors.Wrapf(ErrConfiguration, "unknown converter type '%s'", tag)
}
