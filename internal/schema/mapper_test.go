package schema

import (
	"errors"
	"testing"

	"PmdaPipeline/internal/table"
)

func TestStripWhitespace(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		" 識別 番号 ":        "識別番号",
		"医薬品　（一般名）":      "医薬品（一般名）",
		"brand\nname":    "brandname",
		"no_whitespace":  "no_whitespace",
		"tabs\tand\r\n ": "tabsand",
	}
	for in, want := range cases {
		if got := StripWhitespace(in); got != want {
			t.Fatalf("StripWhitespace(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplyRenamesWhitespaceInsensitive(t *testing.T) {
	t.Parallel()

	m := Mapping{
		Renames:  map[string]string{"識別番号": "id", "性別": "sex"},
		Critical: []string{"id"},
	}

	in := table.New("識別 番号", " 性別")
	in.Rows = append(in.Rows, table.Row{
		"識別 番号": table.String("001"),
		" 性別":   table.String("男性"),
	})

	out, err := m.Apply(in)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(out.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out.Rows))
	}
	if got := out.Rows[0].GetString("id"); got != "001" {
		t.Fatalf("id = %q, want 001", got)
	}
	if got := out.Rows[0].GetString("sex"); got != "男性" {
		t.Fatalf("sex = %q, want 男性", got)
	}
}

func TestApplyMissingOptionalBecomesNull(t *testing.T) {
	t.Parallel()

	m := Mapping{
		Renames:  map[string]string{"識別番号": "id", "年齢": "age"},
		Critical: []string{"id"},
	}

	in := table.New("識別番号")
	in.Rows = append(in.Rows, table.Row{"識別番号": table.String("002")})

	out, err := m.Apply(in)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if !out.HasColumn("age") {
		t.Fatalf("expected synthesized age column, got %v", out.Columns)
	}
	if out.Rows[0].Get("age") != nil {
		t.Fatalf("expected NULL age, got %q", out.Rows[0].GetString("age"))
	}
}

func TestApplyMissingCriticalFails(t *testing.T) {
	t.Parallel()

	m := Mapping{
		Renames:  map[string]string{"識別番号": "id", "性別": "sex"},
		Critical: []string{"id"},
	}

	in := table.New("性別")
	in.Rows = append(in.Rows, table.Row{"性別": table.String("女性")})

	_, err := m.Apply(in)
	if !errors.Is(err, ErrMissingCriticalField) {
		t.Fatalf("expected ErrMissingCriticalField, got %v", err)
	}
}

func TestApplyDropsUnmappedColumns(t *testing.T) {
	t.Parallel()

	m := Mapping{Renames: map[string]string{"識別番号": "id"}, Critical: []string{"id"}}

	in := table.New("識別番号", "備考")
	in.Rows = append(in.Rows, table.Row{
		"識別番号": table.String("003"),
		"備考":   table.String("noise"),
	})

	out, err := m.Apply(in)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if out.HasColumn("備考") {
		t.Fatalf("unmapped column survived: %v", out.Columns)
	}
}

func TestApplyCriticalFirstInColumnOrder(t *testing.T) {
	t.Parallel()

	m := Mapping{
		Renames:  map[string]string{"識別番号": "id", "有害事象": "reaction", "年齢": "age"},
		Critical: []string{"id"},
	}

	out, err := m.Apply(table.New("識別番号", "有害事象", "年齢"))
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	want := []string{"id", "age", "reaction"}
	if len(out.Columns) != len(want) {
		t.Fatalf("columns = %v, want %v", out.Columns, want)
	}
	for i, col := range want {
		if out.Columns[i] != col {
			t.Fatalf("columns = %v, want %v", out.Columns, want)
		}
	}
}
