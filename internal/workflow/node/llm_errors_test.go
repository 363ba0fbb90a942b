package node

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsResponseFormatUnsupportedError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New(`400: Unknown parameter: 'response_format'`), true},
		{errors.New("json_object mode is not supported by this model"), true},
		{errors.New("Invalid value for Response field"), true},
		{errors.New("context deadline exceeded"), false},
		{errors.New("json_object requested"), false},
		{errors.New("429 rate limited"), false},
	}
	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsResponseFormatUnsupportedError(tt.err))
		})
	}
}
