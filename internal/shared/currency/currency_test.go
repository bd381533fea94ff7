package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatKSh(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{amount: 0, want: "KSh 0"},
		{amount: 950, want: "KSh 950"},
		{amount: 2500, want: "KSh 2,500"},
		{amount: 1250.5, want: "KSh 1,250.50"},
		{amount: 1000000, want: "KSh 1,000,000"},
		{amount: 2500.004, want: "KSh 2,500"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatKSh(tt.amount), "amount %v", tt.amount)
	}
}
