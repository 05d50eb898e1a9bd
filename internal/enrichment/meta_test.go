package enrichment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrichsync/internal/constants"
)

func TestListMetadata_EnrichByURL(t *testing.T) {
	schema := ListMetadata(constants.MetaObjectTypeEnrichByURL)

	assert.True(t, schema.OK)
	assert.Nil(t, schema.Error)
	require.Len(t, schema.Options, len(ProspectInfoFields))

	for _, opt := range schema.Options {
		assert.True(t, strings.HasPrefix(opt.Value, "profile."), opt.Value)
		assert.NotEmpty(t, opt.Label)
	}
}

func TestListMetadata_OptionsAreValidExpressions(t *testing.T) {
	m := newTestMapper(t)
	validator, ok := m.profiles.(interface{ ValidateExpression(string) error })
	require.True(t, ok)

	for _, opt := range ListMetadata(constants.MetaObjectTypeEnrichByURL).Options {
		assert.NoError(t, validator.ValidateExpression(opt.Value), opt.Value)
	}
}

func TestListMetadata_ReturnsCopy(t *testing.T) {
	schema := ListMetadata(constants.MetaObjectTypeEnrichByURL)
	schema.Options[0].Label = "changed"

	assert.NotEqual(t, "changed", ProspectInfoFields[0].Label)
}

func TestListMetadata_Unsupported(t *testing.T) {
	schema := ListMetadata("company")

	assert.False(t, schema.OK)
	require.NotNil(t, schema.Error)
	assert.Equal(t, "Unsupported object type 'company'.", *schema.Error)
	assert.NotNil(t, schema.Options)
	assert.Empty(t, schema.Options)
}
