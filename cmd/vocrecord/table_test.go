package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sensorable/vocrecord"
)

func TestRenderStats(t *testing.T) {
	out := renderStats(vocrecord.Stats{Images: 12, Records: 9, Objects: 31, NoObjects: 3})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	require.Contains(t, strings.ToLower(lines[1]), "no known class")
	require.Regexp(t, `│\s+12 │\s+9 │\s+31 │`, lines[3])
}

func TestRenderRecords(t *testing.T) {
	out := renderRecords([]recordSummary{{
		Filename: "desk.png",
		Format:   "png",
		Width:    100,
		Height:   50,
		Objects: []objectSummary{
			{Class: "Mesa", ClassID: 2},
			{Class: "Silla", ClassID: 5},
		},
	}})
	require.Contains(t, out, "desk.png")
	require.Contains(t, out, "100x50")
	require.Contains(t, out, "Mesa(2), Silla(5)")
}
