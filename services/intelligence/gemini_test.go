package intelligence

import "testing"

func TestCleanForWhatsApp(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bold markers",
			in:   "Your booking is **confirmed** for tomorrow.",
			want: "Your booking is *confirmed* for tomorrow.",
		},
		{
			name: "code fences stripped",
			in:   "```\n10:00\n10:30\n```",
			want: "10:00\n10:30",
		},
		{
			name: "heading becomes bold line",
			in:   "## Available slots\n10:00\n10:30",
			want: "*Available slots*\n10:00\n10:30",
		},
		{
			name: "inline hash kept",
			in:   "Table #4 is reserved.",
			want: "Table #4 is reserved.",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "\n\nSee you soon.\n",
			want: "See you soon.",
		},
		{
			name: "plain text untouched",
			in:   "We open at 9am.",
			want: "We open at 9am.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanForWhatsApp(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
