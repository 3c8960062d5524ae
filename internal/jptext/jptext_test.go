package jptext

import "testing"

func TestNormalizeString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"half-width katakana", "ｱｽﾋﾟﾘﾝ", "アスピリン"},
		{"full-width ascii", "ＰＭＤＡ１２３", "PMDA123"},
		{"surrounding whitespace", "  錠剤　", "錠剤"},
		{"empty", "", ""},
		{"already canonical", "aspirin", "aspirin"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeString(tc.in); got != tc.want {
				t.Fatalf("NormalizeString(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeNil(t *testing.T) {
	t.Parallel()

	if got := Normalize(nil); got != nil {
		t.Fatalf("Normalize(nil) = %v, want nil", *got)
	}

	in := " ＡＢＣ "
	got := Normalize(&in)
	if got == nil || *got != "ABC" {
		t.Fatalf("Normalize(%q) = %v, want ABC", in, got)
	}
}

func TestDecodeCP932(t *testing.T) {
	t.Parallel()

	// アスピリン in cp932.
	raw := []byte{0x83, 0x41, 0x83, 0x58, 0x83, 0x73, 0x83, 0x8a, 0x83, 0x93}
	got := Decode(raw, "")
	if got == nil || *got != "アスピリン" {
		t.Fatalf("Decode cp932 = %v, want アスピリン", got)
	}
}

func TestDecodeHintTakesPriority(t *testing.T) {
	t.Parallel()

	// アスピリン in euc-jp; without the hint these bytes also decode as
	// cp932 half-width katakana noise.
	raw := []byte{0xa5, 0xa2, 0xa5, 0xb9, 0xa5, 0xd4, 0xa5, 0xea, 0xa5, 0xf3}
	got := Decode(raw, "euc-jp")
	if got == nil || *got != "アスピリン" {
		t.Fatalf("Decode euc-jp = %v, want アスピリン", got)
	}
}

func TestDecodeUTF8(t *testing.T) {
	t.Parallel()

	got := Decode([]byte("医薬品"), "utf-8")
	if got == nil || *got != "医薬品" {
		t.Fatalf("Decode utf-8 = %v, want 医薬品", got)
	}
}

func TestDecodeUndecodable(t *testing.T) {
	t.Parallel()

	// 0xff is invalid in every candidate encoding.
	if got := Decode([]byte{0xff, 0xff}, ""); got != nil {
		t.Fatalf("Decode undecodable = %q, want nil", *got)
	}
}

func TestDecodeNil(t *testing.T) {
	t.Parallel()

	if got := Decode(nil, "cp932"); got != nil {
		t.Fatalf("Decode(nil) = %q, want nil", *got)
	}
}
