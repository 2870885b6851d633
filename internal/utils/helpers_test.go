package utils

import (
	"database/sql"
	"testing"
)

func TestNullString(t *testing.T) {
	if got := NullString("   "); got.Valid {
		t.Errorf("NullString(blank) = %+v, want invalid", got)
	}
	if got := NullString(" Austin "); !got.Valid || got.String != "Austin" {
		t.Errorf("NullString(%q) = %+v", " Austin ", got)
	}
}

func TestNullRoundTrip(t *testing.T) {
	f := 12.5
	if got := FloatPtr(NullFloat(&f)); got == nil || *got != f {
		t.Errorf("FloatPtr(NullFloat(%v)) = %v", f, got)
	}
	if got := FloatPtr(NullFloat(nil)); got != nil {
		t.Errorf("FloatPtr(NullFloat(nil)) = %v, want nil", *got)
	}
	n := 5
	if got := IntPtr(NullInt(&n)); got == nil || *got != n {
		t.Errorf("IntPtr(NullInt(%d)) = %v", n, got)
	}
	if got := IntPtr(NullInt(nil)); got != nil {
		t.Errorf("IntPtr(NullInt(nil)) = %v, want nil", *got)
	}
}

func TestRawOrNil(t *testing.T) {
	if got := RawOrNil(sql.NullString{}); got != nil {
		t.Errorf("RawOrNil(NULL) = %q, want nil", got)
	}
	if got := RawOrNil(sql.NullString{String: `{"a":1}`, Valid: true}); string(got) != `{"a":1}` {
		t.Errorf("RawOrNil = %q", got)
	}
}
