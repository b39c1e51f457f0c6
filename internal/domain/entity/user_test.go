package entity

import "testing"

// Downstream storage keys are built from this format; it must stay stable.
func TestUserIDFromExternalID_Format(t *testing.T) {
	tests := []struct {
		externalID int64
		want       string
	}{
		{externalID: 99281932, want: "telegram_99281932"},
		{externalID: 1, want: "telegram_1"},
		{externalID: 7345087765, want: "telegram_7345087765"},
	}

	for _, tt := range tests {
		if got := UserIDFromExternalID(tt.externalID); got != tt.want {
			t.Fatalf("UserIDFromExternalID(%d) = %q, want %q", tt.externalID, got, tt.want)
		}
	}
}
