package sanitizer

import (
	"reflect"
	"testing"
)

func TestSanitizeCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lower case location",
			input: "tun-01-a",
			want:  "TUN-01-A",
		},
		{
			name:  "embedded spaces become dashes",
			input: "TUN 01 A",
			want:  "TUN-01-A",
		},
		{
			name:  "surrounding whitespace",
			input: "  PLT-9981  ",
			want:  "PLT-9981",
		},
		{
			name:  "strips punctuation from scan noise",
			input: "SKU#4471*",
			want:  "SKU4471",
		},
		{
			name:  "collapses repeated dashes",
			input: "A--B---C",
			want:  "A-B-C",
		},
		{
			name:  "trims leading and trailing dashes",
			input: "-TUN-02-",
			want:  "TUN-02",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only junk characters",
			input: "!!??",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeCode(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name",
			input: "Carlos",
			want:  "Carlos",
		},
		{
			name:  "digits removed",
			input: "Carlos99",
			want:  "Carlos",
		},
		{
			name:  "whitespace trimmed",
			input: "  Karen\t",
			want:  "Karen",
		},
		{
			name:  "accented letters kept",
			input: "José",
			want:  "José",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeName(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeNote(t *testing.T) {
	got := SanitizeNote("  pallet was\t\nhalf  wrapped  ")
	want := "pallet was half wrapped"
	if got != want {
		t.Errorf("SanitizeNote() = %q, want %q", got, want)
	}
}

func TestSanitizeSlice(t *testing.T) {
	input := []string{" tun-01 ", "TUN-01", "", "plt 7", "!!"}
	got := SanitizeSlice(input, SanitizeCode)
	want := []string{"TUN-01", "PLT-7"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeSlice() = %v, want %v", got, want)
	}
}
