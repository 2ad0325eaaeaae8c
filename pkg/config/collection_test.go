package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
version: "1.0"
name: sample
endpoints:
  - method: GET
    path: /users/:id
    statusCode: 200
    response:
      id: "{{$request.path.id}}"
websocketEndpoints:
  - path: /echo
    messagePatterns:
      - matchType: contains
        pattern: ping
        response:
          data: pong
graphqlEndpoints:
  - path: /graphql
    resolvers:
      - operationName: GetUser
        responseData: {user: {id: "1"}}
`

const sampleJSON = `{
  "version": "1.0",
  "endpoints": [
    {"method": "POST", "path": "/orders", "statusCode": 201, "response": {"ok": true}}
  ]
}`

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "mocks.yaml", sampleYAML)

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", c.Name)
	require.Len(t, c.Endpoints, 1)
	assert.Equal(t, "GET", c.Endpoints[0].Method)
	assert.Equal(t, "/users/:id", c.Endpoints[0].Path)

	body, ok := c.Endpoints[0].Response.(map[string]any)
	require.True(t, ok, "YAML body should decode to a string-keyed map")
	assert.Equal(t, "{{$request.path.id}}", body["id"])

	require.Len(t, c.WebSocketEndpoints, 1)
	require.Len(t, c.GraphQLEndpoints, 1)
	assert.Equal(t, 3, c.Total())
}

func TestLoadFileJSON(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "mocks.json", sampleJSON)

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, c.Endpoints, 1)
	assert.Equal(t, "/orders", c.Endpoints[0].Path)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoadFileEmpty(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "empty.yaml", "   \n")
	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoadFileInvalidDefinition(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "bad.yaml", `
endpoints:
  - method: TELEPORT
    path: /x
`)
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoints[0]")
	assert.Contains(t, err.Error(), path)
}

func TestLoadFileInvalidSyntax(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(writeTemp(t, dir, "bad.json", `{"endpoints": [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")

	_, err = LoadFile(writeTemp(t, dir, "bad.yaml", "\tendpoints: x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestLoadDirMergesSorted(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "b.yaml", `
endpoints:
  - {method: GET, path: /b}
`)
	writeTemp(t, dir, "a.json", `{"endpoints": [{"method": "GET", "path": "/a"}]}`)
	writeTemp(t, dir, "nested/c.yml", `
websocketEndpoints:
  - path: /c
`)
	writeTemp(t, dir, "ignored.txt", "not a collection")

	c, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, c.Endpoints, 2)
	assert.Equal(t, "/a", c.Endpoints[0].Path)
	assert.Equal(t, "/b", c.Endpoints[1].Path)
	require.Len(t, c.WebSocketEndpoints, 1)
}

func TestLoadDirFailsOnFirstBadFile(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "good.yaml", `
endpoints:
  - {method: GET, path: /ok}
`)
	writeTemp(t, dir, "zz-bad.yaml", `
endpoints:
  - {method: GET}
`)

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zz-bad.yaml")
}

func TestLoadDispatchesOnDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "one.yaml", `
endpoints:
  - {method: GET, path: /one}
`)

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Total())

	c, err = Load(filepath.Join(dir, "one.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Total())

	_, err = Load(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestStarterRoundTrips(t *testing.T) {
	c, err := Parse(Starter(), ".yaml")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(c.Endpoints), 2)
	assert.NotEmpty(t, c.WebSocketEndpoints)
	assert.NotEmpty(t, c.GraphQLEndpoints)
}

func TestWriteStarter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mockbird.yaml")
	require.NoError(t, WriteStarter(path))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Positive(t, c.Total())

	// A second init must not clobber the file.
	assert.ErrorIs(t, WriteStarter(path), ErrFileExists)
}
