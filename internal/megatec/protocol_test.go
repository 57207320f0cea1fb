// internal/megatec/protocol_test.go
package megatec

import (
	"errors"
	"testing"
)

var testBounds = Bounds{Low: 24, Full: 27}

func TestParse_EndToEndExample(t *testing.T) {
	r, err := Parse("(220.0 220.0 220.0 50.0 50.0 26.5 30.0)XX", testBounds)
	if err != nil {
		t.Fatalf("Parse err=%v", err)
	}

	want := Reading{
		Raw:            "(220.0 220.0 220.0 50.0 50.0 26.5 30.0)XX",
		InputVoltage:   220.0,
		FaultVoltage:   220.0,
		OutputVoltage:  220.0,
		Load:           50.0,
		Frequency:      50.0,
		BatteryVoltage: 26.5,
		Temperature:    30.0,
		BatteryLevel:   83.33,
	}
	if r != want {
		t.Fatalf("reading mismatch:\n got=%+v\nwant=%+v", r, want)
	}
}

func TestParse_FieldsInOrder(t *testing.T) {
	// typical device reply: 8th field is status bits, CR terminated
	r, err := Parse("(208.4 140.0 208.4 034 59.9 2.05 35.0 00110000\r", Bounds{Low: 1.8, Full: 2.3})
	if err != nil {
		t.Fatalf("Parse err=%v", err)
	}

	got := []float64{r.InputVoltage, r.FaultVoltage, r.OutputVoltage, r.Load, r.Frequency, r.BatteryVoltage, r.Temperature}
	want := []float64{208.4, 140.0, 208.4, 34, 59.9, 2.05, 35.0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field %d: got=%v want=%v", i, got[i], want[i])
		}
	}
	if r.Raw != "(208.4 140.0 208.4 034 59.9 2.05 35.0 00110000" {
		t.Fatalf("raw not trimmed: %q", r.Raw)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		msg  string
	}{
		{name: "bad", raw: "(bad)", msg: "invalid response: (bad)"},
		{name: "no paren", raw: "220.0 220.0 220.0 50.0 50.0 26.5 30.0", msg: "invalid response: 220.0 220.0 220.0 50.0 50.0 26.5 30.0"},
		{name: "six fields", raw: "(220.0 220.0 220.0 50.0 50.0 26.5)", msg: "invalid response: (220.0 220.0 220.0 50.0 50.0 26.5)"},
		{name: "empty", raw: "\r\n", msg: "invalid response: "},
		{name: "lone paren", raw: "(", msg: "invalid response: ("},
		{name: "nak", raw: "NAK\r", msg: "invalid response: NAK"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Parse(tc.raw, testBounds)
			if err == nil {
				t.Fatalf("expected error, got reading %+v", r)
			}
			var pe *ProtocolError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ProtocolError, got %T", err)
			}
			if pe.Error() != tc.msg {
				t.Fatalf("message: got=%q want=%q", pe.Error(), tc.msg)
			}
			if r != (Reading{}) {
				t.Fatalf("partial reading returned: %+v", r)
			}
		})
	}
}

func TestParse_NonNumericField(t *testing.T) {
	for _, raw := range []string{
		"(220.0 220.0 abc 50.0 50.0 26.5 30.0)",
		"(220.0 220.0 220.0 50.0 50.0 NaN 30.0)",
		"(220.0  220.0 220.0 50.0 50.0 26.5 30.0)",
	} {
		_, err := Parse(raw, testBounds)
		var pe *ProtocolError
		if !errors.As(err, &pe) {
			t.Fatalf("%q: expected *ProtocolError, got %v", raw, err)
		}
	}
}

func TestParse_DegenerateBounds(t *testing.T) {
	_, err := Parse("(220.0 220.0 220.0 50.0 50.0 26.5 30.0)", Bounds{Low: 24, Full: 24})
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProtocolError, got %v", err)
	}
}

func TestBatteryLevel_Clamp(t *testing.T) {
	cases := []struct {
		v    float64
		want float64
	}{
		{v: 10, want: 0},
		{v: 24, want: 0},
		{v: 25.5, want: 50},
		{v: 26.5, want: 83.33},
		{v: 27, want: 100},
		{v: 40, want: 100},
	}

	for _, tc := range cases {
		got, err := BatteryLevel(tc.v, testBounds)
		if err != nil {
			t.Fatalf("v=%v err=%v", tc.v, err)
		}
		if got != tc.want {
			t.Fatalf("v=%v got=%v want=%v", tc.v, got, tc.want)
		}
	}
}

func TestBatteryLevel_Monotonic(t *testing.T) {
	prev := -1.0
	for v := 20.0; v <= 30.0; v += 0.05 {
		got, err := BatteryLevel(v, testBounds)
		if err != nil {
			t.Fatalf("v=%v err=%v", v, err)
		}
		if got < prev {
			t.Fatalf("level decreased at v=%v: %v < %v", v, got, prev)
		}
		if got < 0 || got > 100 {
			t.Fatalf("level out of range at v=%v: %v", v, got)
		}
		prev = got
	}
}

func TestBatteryLevel_EqualBounds(t *testing.T) {
	if _, err := BatteryLevel(25, Bounds{Low: 25, Full: 25}); err == nil {
		t.Fatalf("expected error for equal bounds")
	}
}

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want uint16
	}{
		{nil, CodeNone},
		{&ConnectionError{Op: "dial", Err: errors.New("x")}, CodeConnection},
		{invalidResponse("(bad)"), CodeProtocol},
		{&UnsupportedProtocolError{Protocol: "Voltronic/QPI"}, CodeUnsupported},
		{errors.New("other"), CodeUnknown},
	}
	for _, tc := range cases {
		if got := Code(tc.err); got != tc.want {
			t.Fatalf("Code(%v)=%d want=%d", tc.err, got, tc.want)
		}
	}
}
