package httpgin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEtagMatches(t *testing.T) {
	const tag = `W/"abc"`

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`W/"abc"`, true},
		{`"abc"`, true},
		{`"x", W/"abc"`, true},
		{"*", true},
		{`W/"abd"`, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, etagMatches(tt.header, tag), tt.header)
	}
}
