package store

import "testing"

func TestNormalizeCloud(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "aws"},
		{in: " AWS ", want: "aws"},
		{in: "Azure", want: "azure"},
		{in: "google", want: "gcp"},
		{in: "amazon", want: "aws"},
		{in: "oracle", want: "oracle"},
	}

	for _, tc := range tests {
		if got := NormalizeCloud(tc.in); got != tc.want {
			t.Fatalf("NormalizeCloud(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateCloud(t *testing.T) {
	for _, c := range []string{"aws", "azure", "gcp", "GCP", "google"} {
		if err := ValidateCloud(c); err != nil {
			t.Fatalf("expected %s to be valid, got err=%v", c, err)
		}
	}
	if err := ValidateCloud("oracle"); err == nil {
		t.Fatal("expected oracle to be invalid")
	}
}
