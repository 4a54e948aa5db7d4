package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTitle(t *testing.T) {
	require.NoError(t, ValidateTitle("Robotics team"))
	require.ErrorIs(t, ValidateTitle(""), ErrTitleRequired)
	require.ErrorIs(t, ValidateTitle("   "), ErrTitleRequired)
	require.ErrorIs(t, ValidateTitle(strings.Repeat("a", 201)), ErrTitleTooLong)
	require.NoError(t, ValidateTitle(strings.Repeat("a", 200)))
}

func TestValidateDescription(t *testing.T) {
	require.NoError(t, ValidateDescription("Looking for collaborators"))
	require.ErrorIs(t, ValidateDescription("  "), ErrDescriptionRequired)
}

func TestValidateMessage(t *testing.T) {
	require.NoError(t, ValidateMessage(""))
	require.NoError(t, ValidateMessage(strings.Repeat("m", 1000)))
	require.ErrorIs(t, ValidateMessage(strings.Repeat("m", 1001)), ErrMessageTooLong)
}

func TestValidateSkills(t *testing.T) {
	require.NoError(t, ValidateSkills(nil))
	require.NoError(t, ValidateSkills([]string{"Go", "PostgreSQL"}))

	many := make([]string, 51)
	require.ErrorIs(t, ValidateSkills(many), ErrTooManySkills)

	require.ErrorIs(t, ValidateSkills([]string{strings.Repeat("s", 101)}), ErrSkillTooLong)
}

func TestNormalizeSkills(t *testing.T) {
	assert.Equal(t, []string{"Go", "React"}, NormalizeSkills([]string{" Go ", "", "React", "   "}))
	assert.Empty(t, NormalizeSkills(nil))
	// Casing is preserved.
	assert.Equal(t, []string{"PostgreSQL"}, NormalizeSkills([]string{"PostgreSQL"}))
}
