package kafka

import (
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", []string{}},
		{"localhost:9092", []string{"localhost:9092"}},
		{" a:9092 , ,b:9092,", []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseBrokers(tt.input))
		})
	}
}

func TestCreateChannel_NoBrokers(t *testing.T) {
	_, _, err := CreateChannel(watermill.NewSlogLogger(slog.Default()), nil, "scriptorium")
	require.ErrorIs(t, err, ErrNoBrokers)
}
