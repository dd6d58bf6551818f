package param

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFlatten_PassThrough(t *testing.T) {
	in := []interface{}{1, "a", nil, 3.5}
	out, err := Flatten(in)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("Flatten = %v, want %v", out, in)
	}
}

func TestFlatten_NestedSlices(t *testing.T) {
	out, err := Flatten([]interface{}{1, []string{"a", "b"}, 2})
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	want := []interface{}{1, "a", "b", 2}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("Flatten = %v, want %v", out, want)
	}
}

func TestFlatten_ByteSliceAndValuer(t *testing.T) {
	blob := []byte{1, 2, 3}
	dec := decimal.RequireFromString("10.25")
	out, err := Flatten([]interface{}{blob, dec})
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 args, got %d", len(out))
	}
	if !reflect.DeepEqual(out[0], blob) {
		t.Errorf("blob was expanded: %v", out[0])
	}
	if got, ok := out[1].(decimal.Decimal); !ok || !got.Equal(dec) {
		t.Errorf("decimal mangled: %v", out[1])
	}
}

func TestFlatten_EmptyCollection(t *testing.T) {
	if _, err := Flatten([]interface{}{[]int{}}); err == nil {
		t.Error("expected error for empty collection")
	}
}

func TestDescriptor_Validate(t *testing.T) {
	if err := Out("total", TypeDecimal).Validate(); err != nil {
		t.Errorf("valid OUT rejected: %v", err)
	}
	if err := (Descriptor{Name: "x", Mode: ModeOut, Type: TypeInt, Value: 1}).Validate(); err == nil {
		t.Error("OUT with value accepted")
	}
	if err := (Descriptor{Name: "x", Mode: ModeOut}).Validate(); err == nil {
		t.Error("OUT without type accepted")
	}
	if err := (Descriptor{Name: "x", Mode: ModeInOut, Value: 1}).Validate(); err == nil {
		t.Error("INOUT without type accepted")
	}
	if err := In(1).Validate(); err != nil {
		t.Errorf("plain IN rejected: %v", err)
	}
}

func TestScanOut_Decimal(t *testing.T) {
	d := Out("total", TypeNumeric)
	got, err := ScanOut(d, "12.340")
	if err != nil {
		t.Fatalf("ScanOut failed: %v", err)
	}
	dec, ok := got.(decimal.Decimal)
	if !ok {
		t.Fatalf("expected decimal.Decimal, got %T", got)
	}
	if !dec.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("unexpected value: %v", dec)
	}
}

func TestScanOut_Kinds(t *testing.T) {
	if v, err := ScanOut(Out("n", TypeBigInt), int64(9)); err != nil || v != int64(9) {
		t.Errorf("bigint: %v %v", v, err)
	}
	if v, err := ScanOut(Out("s", TypeVarChar), []byte("hi")); err != nil || v != "hi" {
		t.Errorf("varchar: %v %v", v, err)
	}
	if v, err := ScanOut(Out("b", TypeBit), int64(1)); err != nil || v != true {
		t.Errorf("bit: %v %v", v, err)
	}
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if v, err := ScanOut(Out("d", TypeDateTime), ts); err != nil || v != ts {
		t.Errorf("datetime: %v %v", v, err)
	}
	if v, err := ScanOut(Out("x", TypeInt), nil); err != nil || v != nil {
		t.Errorf("null: %v %v", v, err)
	}
	if _, err := ScanOut(Out("n", TypeInt), "oops"); err == nil {
		t.Error("expected type error")
	}
}
