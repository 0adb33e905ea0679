package customer

import "testing"

// TestMissingContactDetection exercises the phone-or-email enforcement
// rule independent of persistence: FindOrCreate should refuse an Input
// with neither set.
func TestMissingContactDetection(t *testing.T) {
	cases := []struct {
		name    string
		in      Input
		missing bool
	}{
		{"both blank", Input{Name: "A", Surname: "B"}, true},
		{"only whitespace", Input{Name: "A", Surname: "B", Phone: "   ", Email: "  "}, true},
		{"email present", Input{Name: "A", Surname: "B", Email: "a@b.com"}, false},
		{"phone present", Input{Name: "A", Surname: "B", Phone: "0412-1234567"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			trimmedPhone := trim(c.in.Phone)
			trimmedEmail := trim(c.in.Email)
			gotMissing := trimmedPhone == "" && trimmedEmail == ""
			if gotMissing != c.missing {
				t.Fatalf("got missing=%v, want %v", gotMissing, c.missing)
			}
		})
	}
}

func trim(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}
