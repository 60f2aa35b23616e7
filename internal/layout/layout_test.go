package layout

import (
	"strings"
	"testing"
)

func validFixed() *Layout {
	return &Layout{
		Name:        "orders",
		Version:     1,
		Kind:        Fixed,
		Destination: "repository",
		StorageName: "orders",
		Fields: []Field{
			{Name: "code", Position: 1, Size: 3, Type: FieldString},
			{Name: "qty", Position: 4, Size: 5, Type: FieldInt},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()
	if err := validFixed().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_UnknownKind(t *testing.T) {
	t.Parallel()
	l := validFixed()
	l.Kind = "columnar"
	err := l.Validate()
	if err == nil {
		t.Fatal("Validate() accepted unknown file_type")
	}
	if !strings.Contains(err.Error(), "columnar") {
		t.Errorf("error %q should name the bad kind", err)
	}
}

func TestValidate_KindCaseInsensitive(t *testing.T) {
	t.Parallel()
	l := validFixed()
	l.Kind = "Fixed"
	if err := l.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil for capitalized kind tag", err)
	}
	if l.Kind != Fixed {
		t.Errorf("Kind = %q, want normalized %q", l.Kind, Fixed)
	}
}

func TestValidate_DuplicateFieldNames(t *testing.T) {
	t.Parallel()
	l := validFixed()
	l.Fields = append(l.Fields, Field{Name: "code", Position: 9, Size: 1})
	err := l.Validate()
	if err == nil {
		t.Fatal("Validate() accepted duplicate field names")
	}
	if !strings.Contains(err.Error(), `"code"`) {
		t.Errorf("error %q should name the duplicate field", err)
	}
}

func TestValidate_MultiCharDelimiter(t *testing.T) {
	t.Parallel()
	l := validFixed()
	l.Kind = Delimited
	l.Delimiter = "||"
	if err := l.Validate(); err == nil {
		t.Fatal("Validate() accepted multi-character delimiter")
	}
}

func TestValidate_NoFields(t *testing.T) {
	t.Parallel()
	l := validFixed()
	l.Fields = nil
	if err := l.Validate(); err == nil {
		t.Fatal("Validate() accepted a layout without fields")
	}
}

func TestValidate_FixedBadOffsets(t *testing.T) {
	t.Parallel()
	l := validFixed()
	l.Fields[0].Position = 0
	if err := l.Validate(); err == nil {
		t.Fatal("Validate() accepted position 0 for fixed layout")
	}

	l = validFixed()
	l.Fields[1].Size = 0
	if err := l.Validate(); err == nil {
		t.Fatal("Validate() accepted size 0 for fixed layout")
	}
}

func TestDelimiterRune_Default(t *testing.T) {
	t.Parallel()
	l := &Layout{}
	if got := l.DelimiterRune(); got != ',' {
		t.Errorf("DelimiterRune() = %q, want ','", got)
	}
	l.Delimiter = ";"
	if got := l.DelimiterRune(); got != ';' {
		t.Errorf("DelimiterRune() = %q, want ';'", got)
	}
}
