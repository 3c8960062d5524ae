package jpdate

import "testing"

func TestToISO(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"compact reiwa", "R2.4.1", "2020-04-01"},
		{"long latin year only", "Reiwa 2", "2020-01-01"},
		{"kanji reiwa", "令和2年4月1日", "2020-04-01"},
		{"kanji gannen", "令和元年5月1日", "2019-05-01"},
		{"latin gannen", "Reiwa Gannen 5 1", "2019-05-01"},
		{"heisei", "平成30年12月25日", "2018-12-25"},
		{"showa single letter", "S60.1.15", "1985-01-15"},
		{"taisho", "大正10年3月2日", "1921-03-02"},
		{"meiji", "明治45年7月30日", "1912-07-30"},
		{"full-width digits", "令和２年４月１日", "2020-04-01"},
		{"parenthetical aside", "令和2年(2020年)4月1日", "2020-04-01"},
		{"defaults month and day", "令和3年", "2021-01-01"},
		{"embedded in text", "承認日: R1.9.20 付", "2019-09-20"},
		{"invalid month", "R2.13.1", ""},
		{"invalid day", "R2.2.30", ""},
		{"no era", "2020-04-01", ""},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ToISO(tc.in)
			switch {
			case tc.want == "" && got != nil:
				t.Fatalf("ToISO(%q) = %q, want nil", tc.in, *got)
			case tc.want != "" && got == nil:
				t.Fatalf("ToISO(%q) = nil, want %q", tc.in, tc.want)
			case tc.want != "" && *got != tc.want:
				t.Fatalf("ToISO(%q) = %q, want %q", tc.in, *got, tc.want)
			}
		})
	}
}

func TestToISOLongLatin(t *testing.T) {
	t.Parallel()

	got := ToISO("Reiwa 2 4 1")
	if got == nil || *got != "2020-04-01" {
		t.Fatalf("ToISO long latin = %v, want 2020-04-01", got)
	}
}

func TestYear(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"R1", 2019, true},
		{"R2", 2020, true},
		{"H30", 2018, true},
		{"令和元年", 2019, true},
		{"平成元年", 1989, true},
		{"2020", 2020, true},
		{"２０２０", 2020, true},
		{"", 0, false},
		{"unknown", 0, false},
	}

	for _, tc := range cases {
		got := Year(tc.in)
		if !tc.ok {
			if got != nil {
				t.Fatalf("Year(%q) = %d, want nil", tc.in, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Fatalf("Year(%q) = %v, want %d", tc.in, got, tc.want)
		}
	}
}
