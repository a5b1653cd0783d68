package dispatch

import "testing"

func TestTriggerExtract(t *testing.T) {
	t.Parallel()

	trig := NewTrigger("Augment")

	tests := []struct {
		name    string
		text    string
		want    string
		wantOK  bool
	}{
		{
			name:   "simple command",
			text:   "Augment help",
			want:   "help",
			wantOK: true,
		},
		{
			name:   "case insensitive",
			text:   "augment LIST PARTICIPANTS",
			want:   "LIST PARTICIPANTS",
			wantOK: true,
		},
		{
			name:   "trigger mid-sentence",
			text:   "hey Augment please summarize",
			want:   "please summarize",
			wantOK: true,
		},
		{
			name:   "substring match inside longer word",
			text:   "Augmented reality status",
			want:   "ed reality status",
			wantOK: true,
		},
		{
			name:   "no trigger word",
			text:   "let's move to the next agenda item",
			wantOK: false,
		},
		{
			name:   "trigger only",
			text:   "Augment",
			wantOK: false,
		},
		{
			name:   "trigger followed by whitespace",
			text:   "Augment   ",
			wantOK: false,
		},
		{
			name:   "first occurrence wins",
			text:   "Augment status Augment help",
			want:   "status Augment help",
			wantOK: true,
		},
		{
			name:   "empty input",
			text:   "",
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := trig.Extract(tc.text)
			if ok != tc.wantOK {
				t.Fatalf("Extract(%q) ok = %v, want %v", tc.text, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Errorf("Extract(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}
