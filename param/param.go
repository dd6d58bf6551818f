// Package param describes statement parameters: plain input values,
// stored-procedure IN/OUT/INOUT descriptors with declared types, and
// the normalization applied to argument lists before binding.
package param

import "fmt"

// Mode tells how a stored-procedure parameter travels.
type Mode int

const (
	ModeIn Mode = iota
	ModeOut
	ModeInOut
)

func (m Mode) String() string {
	switch m {
	case ModeIn:
		return "IN"
	case ModeOut:
		return "OUT"
	case ModeInOut:
		return "INOUT"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Type is the declared SQL type of a procedure parameter. Registration
// of OUT and INOUT parameters requires one; IN parameters may leave it
// as TypeUnknown and let the driver infer.
type Type int

const (
	TypeUnknown Type = iota
	TypeBit
	TypeTinyInt
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeDecimal
	TypeNumeric
	TypeFloat
	TypeReal
	TypeDate
	TypeTime
	TypeDateTime
	TypeChar
	TypeVarChar
	TypeText
	TypeBinary
	TypeVarBinary
)

func (t Type) String() string {
	names := map[Type]string{
		TypeUnknown:   "unknown",
		TypeBit:       "bit",
		TypeTinyInt:   "tinyint",
		TypeSmallInt:  "smallint",
		TypeInt:       "int",
		TypeBigInt:    "bigint",
		TypeDecimal:   "decimal",
		TypeNumeric:   "numeric",
		TypeFloat:     "float",
		TypeReal:      "real",
		TypeDate:      "date",
		TypeTime:      "time",
		TypeDateTime:  "datetime",
		TypeChar:      "char",
		TypeVarChar:   "varchar",
		TypeText:      "text",
		TypeBinary:    "binary",
		TypeVarBinary: "varbinary",
	}
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Descriptor declares one stored-procedure parameter.
type Descriptor struct {
	Name  string // optional; empty means positional
	Mode  Mode
	Type  Type        // mandatory for OUT and INOUT
	Value interface{} // input value; nil for OUT
}

// In declares a positional input parameter.
func In(v interface{}) Descriptor {
	return Descriptor{Mode: ModeIn, Value: v}
}

// InNamed declares a named input parameter.
func InNamed(name string, v interface{}) Descriptor {
	return Descriptor{Name: name, Mode: ModeIn, Value: v}
}

// Out declares an output parameter of the given declared type.
func Out(name string, t Type) Descriptor {
	return Descriptor{Name: name, Mode: ModeOut, Type: t}
}

// InOut declares a parameter that carries a value in and a result out.
func InOut(name string, v interface{}, t Type) Descriptor {
	return Descriptor{Name: name, Mode: ModeInOut, Type: t, Value: v}
}

// Validate checks the registration invariants: OUT parameters carry no
// value, and OUT/INOUT parameters declare a type.
func (d Descriptor) Validate() error {
	switch d.Mode {
	case ModeOut:
		if d.Value != nil {
			return fmt.Errorf("param: OUT parameter %q must not carry a value", d.Name)
		}
		if d.Type == TypeUnknown {
			return fmt.Errorf("param: OUT parameter %q requires a declared type", d.Name)
		}
	case ModeInOut:
		if d.Type == TypeUnknown {
			return fmt.Errorf("param: INOUT parameter %q requires a declared type", d.Name)
		}
	}
	return nil
}

// IsOutput reports whether the parameter returns a value.
func (d Descriptor) IsOutput() bool {
	return d.Mode == ModeOut || d.Mode == ModeInOut
}
