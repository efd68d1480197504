package agents

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/index"
)

func TestNewCoversEveryMode(t *testing.T) {
	cfg := testConfig(t)
	for _, mode := range core.Modes() {
		agent, err := New(mode, cfg)
		require.NoError(t, err, "mode %s", mode)
		require.NotNil(t, agent, "mode %s", mode)
	}
}

func TestNewReturnsDistinctTypesPerFamily(t *testing.T) {
	cfg := testConfig(t)

	chaining, err := New(core.ModeChainingQuery, cfg)
	require.NoError(t, err)
	assert.IsType(t, &ChainingAgent{}, chaining)

	document, err := New(core.ModeRAGDocument, cfg)
	require.NoError(t, err)
	assert.IsType(t, &DocumentAgent{}, document)

	research, err := New(core.ModeReactDeepResearch, cfg)
	require.NoError(t, err)
	assert.IsType(t, &ResearchAgent{}, research)
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New(core.Mode("quantum_agent"), testConfig(t))
	require.Error(t, err)

	var unknownErr *core.UnknownModeError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "quantum_agent", unknownErr.Mode)
}

func TestFormatChunksRendersJSONObjects(t *testing.T) {
	text := formatChunks([]index.Chunk{
		{Source: "/docs/opm_2021.pdf", Content: "goal met"},
		{Source: "/docs/opm_2022.pdf", Content: "goal missed"},
	})

	assert.Contains(t, text, `"id": 0`)
	assert.Contains(t, text, `"id": 1`)
	assert.Contains(t, text, `"filename": "opm_2021.pdf"`)
	assert.Contains(t, text, `"content": "goal met"`)
	assert.Contains(t, text, "\n\n")
}

func TestFormatChunksEmpty(t *testing.T) {
	assert.Empty(t, formatChunks(nil))
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "opm_2021.pdf", sourceLabel("/docs/opm_2021.pdf"))
	assert.Equal(t, "opm_2021.pdf", sourceLabel("opm_2021.pdf"))
	assert.Equal(t, "https://example.com/path/report", sourceLabel("https://example.com/path/report"))
	assert.Equal(t, "http://example.com", sourceLabel("http://example.com"))
}

func TestHistoryTextWindowsTurns(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.HistoryWindow = 2

	turns := []core.Turn{
		{Role: core.RoleUser, Content: "first"},
		{Role: core.RoleAssistant, Content: "second"},
		{Role: core.RoleUser, Content: "third"},
	}
	text := historyText(cfg, turns)
	assert.NotContains(t, text, "first")
	assert.Contains(t, text, "assistant: second")
	assert.Contains(t, text, "user: third")
}
