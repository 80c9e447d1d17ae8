package phone

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		countryCode string
		want        string
	}{
		{
			name:        "local number gets country code",
			raw:         "07000000",
			countryCode: "+225",
			want:        "+22507000000",
		},
		{
			name:        "ten digit local number",
			raw:         "0700000000",
			countryCode: "+225",
			want:        "+2250700000000",
		},
		{
			name:        "international number unchanged",
			raw:         "+15551234567",
			countryCode: "+225",
			want:        "+15551234567",
		},
		{
			name:        "canonical local number unchanged",
			raw:         "+22507000000",
			countryCode: "+225",
			want:        "+22507000000",
		},
		{
			name:        "empty number gets prefix only",
			raw:         "",
			countryCode: "+225",
			want:        "+225",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, tt.countryCode)
			if got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.raw, tt.countryCode, got, tt.want)
			}
		})
	}
}
