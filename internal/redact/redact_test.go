package redact

import "testing"

func TestFilterApply(t *testing.T) {
	t.Parallel()

	f := New(true)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "email",
			in:   "reach me at sam.lee@example.com after the call",
			want: "reach me at [EMAIL] after the call",
		},
		{
			name: "phone",
			in:   "my cell is 555-867-5309",
			want: "my cell is [PHONE]",
		},
		{
			name: "phone without separators",
			in:   "call 5558675309 tomorrow",
			want: "call [PHONE] tomorrow",
		},
		{
			name: "credit card",
			in:   "billing card 4111-1111-1111-1111 expires soon",
			want: "billing card [CREDIT_CARD] expires soon",
		},
		{
			name: "ssn",
			in:   "SSN on file is 123-45-6789",
			want: "SSN on file is [SSN]",
		},
		{
			name: "plain text untouched",
			in:   "the quarterly numbers look fine",
			want: "the quarterly numbers look fine",
		},
		{
			name: "multiple hits",
			in:   "sam@example.com or 555-867-5309",
			want: "[EMAIL] or [PHONE]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := f.Apply(tc.in); got != tc.want {
				t.Errorf("Apply(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFilterDisabled(t *testing.T) {
	t.Parallel()

	f := New(false)
	in := "sam@example.com 555-867-5309"
	if got := f.Apply(in); got != in {
		t.Errorf("disabled filter modified text: %q", got)
	}
}
