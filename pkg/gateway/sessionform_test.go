package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFormBuildAllDefaults(t *testing.T) {
	form := SessionForm{Name: "support"}

	req, err := form.Build()
	require.NoError(t, err)
	assert.Equal(t, "support", req.Name)
	assert.Empty(t, req.Description)
	assert.Nil(t, req.Config, "untouched form must produce no config at all")
}

func TestSessionFormBuildValidatesNameFirst(t *testing.T) {
	// Name and proxy are both wrong; name must be the one reported.
	form := SessionForm{Name: "bad name!", ProxyEnabled: true}

	_, err := form.Build()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)
}

func TestSessionFormBuildSingleSection(t *testing.T) {
	form := SessionForm{Name: "support", ClientDeviceName: "Support Desk"}

	req, err := form.Build()
	require.NoError(t, err)
	require.NotNil(t, req.Config)
	require.NotNil(t, req.Config.Client)
	assert.Equal(t, "Support Desk", req.Config.Client.DeviceName)
	assert.Nil(t, req.Config.Proxy)
	assert.Nil(t, req.Config.Ignore)
	assert.Nil(t, req.Config.Noweb)
	assert.Empty(t, req.Config.Webhooks)
}

func TestSessionFormBuildProxyRequiresServer(t *testing.T) {
	form := SessionForm{Name: "support", ProxyEnabled: true, ProxyUsername: "u"}

	_, err := form.Build()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "proxy.server", vErr.Field)

	form.ProxyServer = "http://proxy.internal:3128"
	req, err := form.Build()
	require.NoError(t, err)
	require.NotNil(t, req.Config.Proxy)
	assert.Equal(t, "http://proxy.internal:3128", req.Config.Proxy.Server)
}

func TestSessionFormBuildMetadata(t *testing.T) {
	form := SessionForm{Name: "support", MetadataJSON: `{"team":"emea"}`}

	req, err := form.Build()
	require.NoError(t, err)
	require.NotNil(t, req.Config)
	assert.Equal(t, "emea", req.Config.Metadata["team"])

	form.MetadataJSON = `["wrong"]`
	_, err = form.Build()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "metadata", vErr.Field)
}

func TestSessionFormBuildWebhookRows(t *testing.T) {
	form := SessionForm{
		Name: "support",
		Webhooks: []WebhookForm{
			{URL: "https://hooks.example.com/a", Events: []string{"message:received"}},
			{}, // untouched, silently dropped
			{URL: "https://hooks.example.com/b", Events: []string{"session:status"}},
		},
	}

	req, err := form.Build()
	require.NoError(t, err)
	require.NotNil(t, req.Config)
	require.Len(t, req.Config.Webhooks, 2, "untouched row dropped")
	assert.Equal(t, "https://hooks.example.com/a", req.Config.Webhooks[0].URL)
	assert.Equal(t, "https://hooks.example.com/b", req.Config.Webhooks[1].URL)
}

func TestSessionFormBuildWebhookErrorsAreIndexed(t *testing.T) {
	form := SessionForm{
		Name: "support",
		Webhooks: []WebhookForm{
			{URL: "https://hooks.example.com/a", Events: []string{"message:received"}},
			{URL: "nonsense"},
		},
	}

	_, err := form.Build()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "webhooks[1].url", vErr.Field)

	form.Webhooks[1].URL = "https://hooks.example.com/b"
	form.Webhooks[1].Events = []string{"  "}
	_, err = form.Build()
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "webhooks[1].events", vErr.Field)
}

func TestSessionFormBuildUpdateCarriesDescriptionPointer(t *testing.T) {
	form := SessionForm{Name: "support", Description: "  tier one  "}

	req, err := form.BuildUpdate()
	require.NoError(t, err)
	require.NotNil(t, req.Description, "PATCH must send description even when cleared")
	assert.Equal(t, "tier one", *req.Description)
	assert.Nil(t, req.Config)
}

func TestSessionConfigIsEmpty(t *testing.T) {
	var nilCfg *SessionConfig
	assert.True(t, nilCfg.IsEmpty())
	assert.True(t, (&SessionConfig{}).IsEmpty())
	assert.False(t, (&SessionConfig{Debug: true}).IsEmpty())
	assert.False(t, (&SessionConfig{Metadata: map[string]interface{}{"a": 1}}).IsEmpty())
}
