package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type joinInput struct {
	RoomId   string  `json:"roomId" validate:"required,max=128"`
	UserName string  `json:"userName" validate:"required"`
	Type     string  `json:"type" validate:"omitempty,oneof=play pause seek"`
	Value    float64 `json:"value" validate:"gte=0"`
}

func TestValidateOK(t *testing.T) {
	v := NewValidator()
	errs, ok := v.Validate(joinInput{RoomId: "R1", UserName: "A", Type: "seek", Value: 1})
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidateUsesJSONNames(t *testing.T) {
	v := NewValidator()
	errs, ok := v.Validate(joinInput{Type: "rewind", Value: -1})
	require.False(t, ok)

	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Code
	}
	assert.Equal(t, map[string]string{
		"roomId":   "REQUIRED",
		"userName": "REQUIRED",
		"type":     "ONEOF",
		"value":    "GTE",
	}, fields)
	assert.Contains(t, errs.Error(), "roomId is required")
}
