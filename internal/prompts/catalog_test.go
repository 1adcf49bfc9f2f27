package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  Type
	}{
		{"mcq", TypeMCQ},
		{"MCQ", TypeMCQ},
		{" Mcq ", TypeMCQ},
		{"performance", TypePerformance},
		{"PERFORMANCE", TypePerformance},
		{"general", TypeGeneral},
		{"", TypeGeneral},
		{"chat", TypeGeneral},
		{"mcq-ish", TypeGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestGet_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Get("mcq"), Get("MCQ"))
	assert.Equal(t, Get("performance"), Get("Performance"))
}

func TestGet_FallsBackToGeneral(t *testing.T) {
	general := Get("general")
	for _, in := range []string{"", "unknown", "quiz", "GENERAL"} {
		assert.Equal(t, general, Get(in), in)
	}
	assert.NotEqual(t, general, Get("mcq"))
	assert.NotEqual(t, general, Get("performance"))
}

func TestGet_MCQContract(t *testing.T) {
	text := Get("mcq")
	for _, field := range []string{`"questionNo"`, `"question"`, `"options"`, `"correctAnswer"`, `"explanation"`, `"A"`, `"D"`} {
		assert.Contains(t, text, field)
	}
	assert.Contains(t, text, "valid JSON only")
}

func TestGet_PerformanceSections(t *testing.T) {
	text := Get("performance")
	for _, section := range []string{"Performance Summary", "Strengths", "Areas to Improve", "Study Recommendations", "Motivational Note"} {
		assert.Contains(t, text, section)
	}
}

func TestToolsAllowed(t *testing.T) {
	assert.False(t, ToolsAllowed("mcq"))
	assert.False(t, ToolsAllowed("MCQ"))
	assert.False(t, ToolsAllowed("performance"))
	assert.False(t, ToolsAllowed("Performance"))
	assert.True(t, ToolsAllowed("general"))
	assert.True(t, ToolsAllowed(""))
	assert.True(t, ToolsAllowed("anything"))
}
