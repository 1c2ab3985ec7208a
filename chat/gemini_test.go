package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToContents(t *testing.T) {
	transcript := []Turn{
		{Role: RoleSystem, Content: "eres Don Quijote"},
		{Role: RoleUser, Content: "hola"},
		{Role: RoleAssistant, Content: "¡salud!"},
		{Role: RoleUser, Content: "quiero una pizza"},
	}

	system, contents := toContents(transcript)

	require.NotNil(t, system)
	assert.Equal(t, "eres Don Quijote", system.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, "hola", contents[0].Parts[0].Text)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, "¡salud!", contents[1].Parts[0].Text)
	assert.Equal(t, string(genai.RoleUser), contents[2].Role)
}

func TestToContentsWithoutSystemTurn(t *testing.T) {
	system, contents := toContents([]Turn{{Role: RoleUser, Content: "hola"}})
	assert.Nil(t, system)
	assert.Len(t, contents, 1)
}
