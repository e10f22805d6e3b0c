package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapkit/zapctl/pkg/gateway"
	"github.com/zapkit/zapctl/pkg/log"
)

func TestNewRootCmdWiresResourceCommands(t *testing.T) {
	root := NewRootCmd()

	assert.Equal(t, "zapctl", root.Use)
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[strings.Fields(c.Use)[0]] = true
	}
	for _, want := range []string{
		"sessions", "send", "chats", "contacts", "groups", "labels",
		"status", "presence", "webhooks", "apikeys", "config",
		"watch", "listen", "version",
	} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestDescribeError(t *testing.T) {
	vErr := &gateway.ValidationError{Field: "name", Message: "session name cannot be empty"}
	assert.Equal(t, "✗ invalid input: name: session name cannot be empty", describeError(vErr))

	apiErr := &gateway.APIError{StatusCode: 409, Message: "session already exists"}
	assert.Equal(t, "✗ gateway refused the request: session already exists (status 409)", describeError(apiErr))

	// Wrapping keeps the classification.
	wrapped := fmt.Errorf("create session: %w", apiErr)
	assert.Equal(t, "✗ gateway refused the request: session already exists (status 409)", describeError(wrapped))

	assert.Equal(t, "✗ boom", describeError(errors.New("boom")))
}

func TestFactoryFlagsWinOverProfile(t *testing.T) {
	f := &Factory{
		BaseURL: "http://flags.example.test:7001",
		APIKey:  "zk_test_flagkey0a1b2c3d4e",
		Token:   "flag-token",
	}
	assert.Equal(t, "http://flags.example.test:7001", f.baseURL())
	assert.Equal(t, "zk_test_flagkey0a1b2c3d4e", f.apiKey())
	assert.Equal(t, "flag-token", f.token())

	client, err := f.Client()
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestFactorySessionID(t *testing.T) {
	f := &Factory{Session: "supportdesk"}
	id, err := f.SessionID()
	require.NoError(t, err)
	assert.Equal(t, "supportdesk", id)

	f = &Factory{}
	_, err = f.SessionID()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session selected")
	assert.Contains(t, err.Error(), "zapctl config set session")
}

func TestSessionArgPrefersPositional(t *testing.T) {
	f := &Factory{Session: "fallback"}

	id, err := sessionArg(f, []string{"explicit"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", id)

	id, err = sessionArg(f, nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", id)
}

func TestConfigRejectsUnknownKey(t *testing.T) {
	f := &Factory{Output: "table"}

	_, _, err := runCommand(t, newConfigCmd(f), "get", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown key "nope"`)
	assert.Contains(t, err.Error(), "api_key, base_url, output, session, token")

	_, _, err = runCommand(t, newConfigCmd(f), "set", "nope", "value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown key "nope"`)
}

func TestConfigInitSeedsProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".zapctl.yaml")

	out, _, err := runCommand(t, NewRootCmd(), "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "profile written")
	assert.Contains(t, out, path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "base_url:")
	assert.Contains(t, string(raw), "localhost:7001")
	assert.Contains(t, string(raw), "output: table")

	// A second init must leave the existing profile alone.
	out, _, err = runCommand(t, NewRootCmd(), "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "profile already exists")
}

func TestVerboseAndQuietFlags(t *testing.T) {
	t.Cleanup(func() { log.SetLevel("info") })

	_, _, err := runCommand(t, NewRootCmd(), "--verbose", "version")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.Logger().GetLevel())

	_, _, err = runCommand(t, NewRootCmd(), "--quiet", "version")
	require.NoError(t, err)
	assert.Equal(t, logrus.ErrorLevel, log.Logger().GetLevel())

	_, _, err = runCommand(t, NewRootCmd(), "--verbose", "--quiet", "version")
	require.Error(t, err, "verbose and quiet are mutually exclusive")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCommand(t, newVersionCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "zapctl")
	assert.Contains(t, out, "commit")
}
