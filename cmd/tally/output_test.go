package main

import (
	"bytes"
	"testing"

	"github.com/cfoust/tally/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeYAMLKeepsOrder(t *testing.T) {
	var buffer bytes.Buffer
	tally := models.NewTally(
		models.TallyEntry{PlayerID: "zoe", Value: 3},
		models.TallyEntry{PlayerID: "adam", Value: 7},
	)

	require.NoError(t, encodeYAML(&buffer, struct {
		Name   string       `json:"name"`
		Code   string       `json:"code"`
		Scores models.Tally `json:"scores"`
	}{
		Name:   "Darts",
		Code:   "501",
		Scores: tally,
	}))

	assert.Equal(t, "name: Darts\ncode: \"501\"\nscores:\n  zoe: 3\n  adam: 7\n", buffer.String())
}

func TestTable(t *testing.T) {
	var buffer bytes.Buffer
	require.NoError(t, table(&buffer, [][]string{
		{"NAME", "WINS"},
		{"Ana", "12"},
	}))
	assert.Equal(t, "NAME  WINS\nAna   12\n", buffer.String())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "67%", percent(2.0/3))
	assert.Equal(t, "+3", signed(3))
	assert.Equal(t, "-2", signed(-2))
	assert.Equal(t, "0", signed(0))
	assert.Equal(t, "WLW", form([]bool{true, false, true}))
}
