package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductDraft_OmitsID(t *testing.T) {
	p := Product{ID: 7, Name: "Mug", Description: "Ceramic", Price: 12.5, Category: "Kitchen", Rating: 4.2}

	raw, err := json.Marshal(p.Draft())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "id")
	assert.Equal(t, "Mug", fields["name"])
	assert.Equal(t, p, p.Draft().WithID(7))
}

func TestProduct_StarCount(t *testing.T) {
	tests := []struct {
		rating float64
		want   int
	}{
		{0, 0},
		{3.9, 3},
		{4, 4},
		{5, 5},
		{7, 5},
		{-1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Product{Rating: tt.rating}.StarCount(), "rating %v", tt.rating)
	}
}
