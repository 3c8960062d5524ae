package refine

import (
	"errors"
	"testing"

	"PmdaPipeline/internal/domain"
	"PmdaPipeline/internal/schema"
	"PmdaPipeline/internal/table"
)

func TestNormalizeDemo(t *testing.T) {
	t.Parallel()

	raw := table.New("識別番号", "性別", "年齢", "報告年度")
	raw.Rows = append(raw.Rows,
		table.Row{
			"識別番号": table.String(" 0001 "),
			"性別":   table.String("男性"),
			"年齢":   table.String("６０歳代"),
			"報告年度": table.String("R1"),
		},
		table.Row{
			"識別番号": table.String("0002"),
			"報告年度": table.String("2020"),
		},
	)

	out, err := NormalizeDemo(raw)
	if err != nil {
		t.Fatalf("NormalizeDemo returned error: %v", err)
	}

	first := out.Rows[0]
	if first.GetString("id") != "0001" {
		t.Fatalf("id = %q, want 0001", first.GetString("id"))
	}
	if first.GetString("age") != "60歳代" {
		t.Fatalf("age = %q, want 60歳代 (width-folded)", first.GetString("age"))
	}
	if first.GetString("reporting_year") != "2019" {
		t.Fatalf("reporting_year = %q, want 2019", first.GetString("reporting_year"))
	}

	second := out.Rows[1]
	if second.Get("sex") != nil {
		t.Fatalf("expected NULL sex for sparse row")
	}
	if second.GetString("reporting_year") != "2020" {
		t.Fatalf("reporting_year = %q, want 2020", second.GetString("reporting_year"))
	}
}

func TestNormalizeDrugCharacterization(t *testing.T) {
	t.Parallel()

	raw := table.New("識別番号", "医薬品（一般名）", "被疑薬等区分")
	raw.Rows = append(raw.Rows,
		table.Row{
			"識別番号":       table.String("0001"),
			"医薬品（一般名）":   table.String("アスピリン"),
			"被疑薬等区分":     table.String("被疑薬"),
		},
		table.Row{
			"識別番号":       table.String("0001"),
			"医薬品（一般名）":   table.String("ワルファリン"),
			"被疑薬等区分":     table.String("併用薬"),
		},
		table.Row{
			"識別番号":       table.String("0002"),
			"医薬品（一般名）":   table.String("未知の薬"),
			"被疑薬等区分":     table.String("相互作用"),
		},
	)

	out, err := NormalizeDrug(raw)
	if err != nil {
		t.Fatalf("NormalizeDrug returned error: %v", err)
	}

	if got := out.Rows[0].GetString("characterization"); got != domain.CharacterizationSuspected {
		t.Fatalf("characterization = %q, want %q", got, domain.CharacterizationSuspected)
	}
	if got := out.Rows[1].GetString("characterization"); got != domain.CharacterizationConcomitant {
		t.Fatalf("characterization = %q, want %q", got, domain.CharacterizationConcomitant)
	}
	// Values outside the closed vocabulary pass through untouched.
	if got := out.Rows[2].GetString("characterization"); got != "相互作用" {
		t.Fatalf("characterization = %q, want passthrough 相互作用", got)
	}
}

func TestNormalizeReac(t *testing.T) {
	t.Parallel()

	raw := table.New("識別番号", "有害事象")
	raw.Rows = append(raw.Rows, table.Row{
		"識別番号": table.String("0001"),
		"有害事象": table.String(" 肝障害 "),
	})

	out, err := NormalizeReac(raw)
	if err != nil {
		t.Fatalf("NormalizeReac returned error: %v", err)
	}
	if got := out.Rows[0].GetString("reaction"); got != "肝障害" {
		t.Fatalf("reaction = %q, want 肝障害", got)
	}
}

func TestNormalizeCaseTablesRequireID(t *testing.T) {
	t.Parallel()

	noID := table.New("性別")
	noID.Rows = append(noID.Rows, table.Row{"性別": table.String("女性")})

	if _, err := NormalizeDemo(noID); !errors.Is(err, schema.ErrMissingCriticalField) {
		t.Fatalf("demo: expected ErrMissingCriticalField, got %v", err)
	}
	if _, err := NormalizeDrug(noID); !errors.Is(err, schema.ErrMissingCriticalField) {
		t.Fatalf("drug: expected ErrMissingCriticalField, got %v", err)
	}
	if _, err := NormalizeReac(noID); !errors.Is(err, schema.ErrMissingCriticalField) {
		t.Fatalf("reaction: expected ErrMissingCriticalField, got %v", err)
	}
}
