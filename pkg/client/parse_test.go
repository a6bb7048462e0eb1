package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFaceAnalysis(t *testing.T) {
	raw := "```json\n{\n  \"faces\": [\n    {\"confidence\": 0.9, \"box\": {\"x\": 0.3, \"y\": 0.2, \"w\": 0.4, \"h\": 0.5}, // main face\n     \"eyes\": [{\"x\": 0.4, \"y\": 0.35, \"w\": 0.05, \"h\": 0.03},],},\n  ],\n  /* note */ \"description\": \"one face\"\n}\n```"

	result := ParseFaceAnalysis(raw)
	require.Len(t, result.Faces, 1)
	assert.Equal(t, 0.9, result.Faces[0].Confidence)
	assert.Equal(t, 0.4, result.Faces[0].Box.W)
	require.Len(t, result.Faces[0].Eyes, 1)
	assert.Equal(t, "one face", result.Description)
}

func TestParseFaceAnalysisFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		desc string
	}{
		{"prose", "I can see a person smiling.", "model returned non-JSON response"},
		{"broken", "{\"faces\": [ {\"confidence\": }", "failed to parse model response"},
		{"empty", "", "model returned non-JSON response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseFaceAnalysis(tt.raw)
			require.NotNil(t, result)
			assert.Empty(t, result.Faces)
			assert.NotNil(t, result.Faces)
			assert.Equal(t, tt.desc, result.Description)
		})
	}
}

func TestParseFaceAnalysisNoFacesKey(t *testing.T) {
	result := ParseFaceAnalysis(`{"description": "landscape"}`)
	assert.NotNil(t, result.Faces)
	assert.Empty(t, result.Faces)
}

func TestSanitizeModelJSON(t *testing.T) {
	assert.Equal(t, `{"a": [1, 2]}`, SanitizeModelJSON("Sure! Here it is: {\"a\": [1, 2,]} hope that helps"))
	assert.Equal(t, `{"url": "http://x"}`, SanitizeModelJSON(`{"url": "http://x"}`))
}
