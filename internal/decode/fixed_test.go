package decode

import (
	"testing"

	"github.com/weftlabs/weft/internal/layout"
)

func fixedLayout(fields ...layout.Field) *layout.Layout {
	return &layout.Layout{
		Name:   "test",
		Kind:   layout.Fixed,
		Fields: fields,
	}
}

func TestFixed_Slice(t *testing.T) {
	t.Parallel()
	lay := fixedLayout(
		layout.Field{Name: "code", Position: 1, Size: 3, Type: layout.FieldString},
		layout.Field{Name: "qty", Position: 4, Size: 5, Type: layout.FieldInt},
	)

	res := decodeString(t, lay, "ABC  007\n")
	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Records))
	}
	rec := res.Records[0]
	if v, _ := rec.Get("code"); v != "ABC" {
		t.Errorf("code = %v, want ABC", v)
	}
	if v, _ := rec.Get("qty"); v != int64(7) {
		t.Errorf("qty = %v, want 7", v)
	}
}

func TestFixed_SliceExactRange(t *testing.T) {
	t.Parallel()
	// position=p, size=s extracts exactly offsets [p-1, p-1+s).
	lay := fixedLayout(layout.Field{Name: "mid", Position: 3, Size: 4, Type: layout.FieldString})

	res := decodeString(t, lay, "abCDEFgh\n")
	if v, _ := res.Records[0].Get("mid"); v != "CDEF" {
		t.Errorf("mid = %v, want CDEF", v)
	}
}

func TestFixed_ContinuationResetsCursor(t *testing.T) {
	t.Parallel()
	// The second field's position is behind the cursor after the first, so
	// the decoder must pull the next physical line and measure it fresh
	// from its own beginning.
	lay := fixedLayout(
		layout.Field{Name: "code", Position: 1, Size: 3, Type: layout.FieldString},
		layout.Field{Name: "qty", Position: 1, Size: 5, Type: layout.FieldInt},
	)

	res := decodeString(t, lay, "ABC\n00099\n")
	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1 (two physical lines, one logical record)", len(res.Records))
	}
	rec := res.Records[0]
	if v, _ := rec.Get("code"); v != "ABC" {
		t.Errorf("code = %v, want ABC", v)
	}
	if v, _ := rec.Get("qty"); v != int64(99) {
		t.Errorf("qty = %v, want 99 read from the continuation line", v)
	}
}

func TestFixed_ContinuationNotCarriedForward(t *testing.T) {
	t.Parallel()
	// With cursor-reset semantics a continuation field at position 4 reads
	// offsets [3,5) of the NEW line, not offsets relative to the old
	// cursor. This pins down the reset-to-zero policy explicitly.
	lay := fixedLayout(
		layout.Field{Name: "head", Position: 1, Size: 5, Type: layout.FieldString},
		layout.Field{Name: "tail", Position: 4, Size: 2, Type: layout.FieldString},
	)

	res := decodeString(t, lay, "AAAAA\nxyzQR\n")
	if v, _ := res.Records[0].Get("tail"); v != "QR" {
		t.Errorf("tail = %v, want QR from offsets [3,5) of the continuation line", v)
	}
}

func TestFixed_PartialRecordOnExhaustedSource(t *testing.T) {
	t.Parallel()
	lay := fixedLayout(
		layout.Field{Name: "code", Position: 1, Size: 3, Type: layout.FieldString},
		layout.Field{Name: "qty", Position: 1, Size: 5, Type: layout.FieldInt},
	)

	// Only one physical line; the continuation line for qty never arrives.
	res := decodeString(t, lay, "ABC\n")
	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1 partial record", len(res.Records))
	}
	rec := res.Records[0]
	if v, _ := rec.Get("code"); v != "ABC" {
		t.Errorf("code = %v, want ABC", v)
	}
	if _, ok := rec.Get("qty"); ok {
		t.Error("qty should be absent from the partial record")
	}
	if len(res.FieldErrors) != 0 {
		t.Errorf("field errors = %v, want none for a clean partial record", res.FieldErrors)
	}
}

func TestFixed_ShortLineFieldError(t *testing.T) {
	t.Parallel()
	lay := fixedLayout(
		layout.Field{Name: "code", Position: 1, Size: 3, Type: layout.FieldString},
		layout.Field{Name: "qty", Position: 4, Size: 5, Type: layout.FieldInt},
	)

	// Line long enough for code but not for qty's [3,8) range.
	res := decodeString(t, lay, "ABC12\n")
	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Records))
	}
	rec := res.Records[0]
	if v, _ := rec.Get("code"); v != "ABC" {
		t.Errorf("code = %v, want ABC despite the qty failure", v)
	}
	if _, ok := rec.Get("qty"); ok {
		t.Error("qty should be absent after the extraction failure")
	}

	if len(res.FieldErrors) != 1 {
		t.Fatalf("field errors = %d, want 1", len(res.FieldErrors))
	}
	fe := res.FieldErrors[0]
	if fe.Field != "qty" || fe.Line != 1 {
		t.Errorf("field error = %+v, want qty on line 1", fe)
	}
	if fe.Want != 8 || fe.Have != 5 {
		t.Errorf("field error range = want %d have %d, expected 8/5", fe.Want, fe.Have)
	}
	if res.Stats.FieldErrors != 1 {
		t.Errorf("stats field errors = %d, want 1", res.Stats.FieldErrors)
	}
}

func TestFixed_ShortLineDoesNotStopRun(t *testing.T) {
	t.Parallel()
	lay := fixedLayout(
		layout.Field{Name: "code", Position: 1, Size: 3, Type: layout.FieldString},
		layout.Field{Name: "qty", Position: 4, Size: 5, Type: layout.FieldInt},
	)

	res := decodeString(t, lay, "AB\nDEF  012\n")
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2 (bad line must not end the run)", len(res.Records))
	}
	if v, _ := res.Records[1].Get("qty"); v != int64(12) {
		t.Errorf("second record qty = %v, want 12", v)
	}
}

func TestFixed_MultipleRecords(t *testing.T) {
	t.Parallel()
	lay := fixedLayout(
		layout.Field{Name: "code", Position: 1, Size: 3, Type: layout.FieldString},
		layout.Field{Name: "qty", Position: 4, Size: 5, Type: layout.FieldInt},
	)

	res := decodeString(t, lay, "ABC  007\nDEF  042\n")
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	if v, _ := res.Records[0].Get("qty"); v != int64(7) {
		t.Errorf("first qty = %v, want 7", v)
	}
	if v, _ := res.Records[1].Get("qty"); v != int64(42) {
		t.Errorf("second qty = %v, want 42", v)
	}
}

func TestFixed_TrimsExtractedValue(t *testing.T) {
	t.Parallel()
	lay := fixedLayout(layout.Field{Name: "name", Position: 1, Size: 8, Type: layout.FieldString})

	res := decodeString(t, lay, "  Bob   \n")
	if v, _ := res.Records[0].Get("name"); v != "Bob" {
		t.Errorf("name = %v, want trimmed Bob", v)
	}
}

func TestFixed_MultiByteCharacters(t *testing.T) {
	t.Parallel()
	// Offsets are characters, not bytes.
	lay := fixedLayout(
		layout.Field{Name: "name", Position: 1, Size: 4, Type: layout.FieldString},
		layout.Field{Name: "qty", Position: 5, Size: 3, Type: layout.FieldInt},
	)

	res := decodeString(t, lay, "æøå 123\n")
	rec := res.Records[0]
	if v, _ := rec.Get("name"); v != "æøå" {
		t.Errorf("name = %v, want æøå", v)
	}
	if v, _ := rec.Get("qty"); v != int64(123) {
		t.Errorf("qty = %v, want 123", v)
	}
}

func TestFixed_ThreeLineContinuation(t *testing.T) {
	t.Parallel()
	lay := fixedLayout(
		layout.Field{Name: "a", Position: 1, Size: 4, Type: layout.FieldString},
		layout.Field{Name: "b", Position: 1, Size: 4, Type: layout.FieldString},
		layout.Field{Name: "c", Position: 1, Size: 4, Type: layout.FieldString},
	)

	res := decodeString(t, lay, "aaaa\nbbbb\ncccc\n")
	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1 spanning three lines", len(res.Records))
	}
	rec := res.Records[0]
	for name, want := range map[string]string{"a": "aaaa", "b": "bbbb", "c": "cccc"} {
		if v, _ := rec.Get(name); v != want {
			t.Errorf("%s = %v, want %s", name, v, want)
		}
	}
}
