package sync

import "testing"

func TestISORoundTrip(t *testing.T) {
	cases := []int64{
		0,
		1,
		999,
		1700000000000,
		1700000000123,
		4102444800000, // year 2100
	}
	for _, ms := range cases {
		iso := ToISO(ms)
		back, err := FromISO(iso)
		if err != nil {
			t.Fatalf("FromISO(%q): %v", iso, err)
		}
		if back != ms {
			t.Errorf("round trip %d -> %q -> %d", ms, iso, back)
		}
	}
}

func TestFromISOFormats(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"2023-11-14T22:13:20.000Z", 1700000000000},
		{"2023-11-14T22:13:20Z", 1700000000000},
		{"2023-11-14T22:13:20.123Z", 1700000000123},
		{"2023-11-14T22:13:20+00:00", 1700000000000},
		{"2023-11-14 22:13:20", 1700000000000},
	}
	for _, tc := range cases {
		got, err := FromISO(tc.in)
		if err != nil {
			t.Errorf("FromISO(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("FromISO(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}

	if _, err := FromISO("not a timestamp"); err == nil {
		t.Error("expected error for garbage input")
	}
}
