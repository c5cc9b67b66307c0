package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/campusdesk/portal/services"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() { out = nil })

	_, err := newParser().ParseArgs(args)
	require.NoError(t, err)
	return buf.String()
}

func TestMarkDumpClear(t *testing.T) {
	for _, driver := range []string{"sqlite", "bolt", "badger"} {
		t.Run(driver, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store")
			base := []string{"--driver", driver, "--path", path}

			run(t, append(base, "mark", "--viewer", "u1", "--kind", "resource", "--id", "r1")...)
			run(t, append(base, "mark", "--viewer", "u1", "--kind", "chapter", "--id", "c1")...)
			run(t, append(base, "mark", "--viewer", "u1", "--kind", "batch", "--id", "B")...)

			var view stateView
			require.NoError(t, yaml.Unmarshal([]byte(run(t, append(base, "dump", "--viewer", "u1")...)), &view))
			assert.Equal(t, "u1", view.Scope)
			assert.Equal(t, []string{"r1"}, view.SeenResources)
			assert.Equal(t, []string{"c1"}, view.SeenChapters)
			assert.Empty(t, view.SeenPublicResources)
			assert.Positive(t, view.LastSeenByBatch["B"])

			// other viewers are untouched
			require.NoError(t, yaml.Unmarshal([]byte(run(t, append(base, "dump")...)), &view))
			assert.Equal(t, "guest", view.Scope)
			assert.Empty(t, view.SeenResources)

			assert.Contains(t, run(t, append(base, "clear", "--viewer", "u1")...), "cleared read state of u1")

			view = stateView{}
			require.NoError(t, yaml.Unmarshal([]byte(run(t, append(base, "dump", "--viewer", "u1")...)), &view))
			assert.Empty(t, view.SeenResources)
			assert.Empty(t, view.LastSeenByBatch)
		})
	}
}

func TestMarkRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bolt")
	_, err := newParser().ParseArgs([]string{"--driver", "bolt", "--path", path, "mark", "--kind", "video", "--id", "x"})
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	token := run(t, "token", "--viewer", "u42", "--secret", "s3cret")

	claims, err := services.NewViewerAuth("s3cret").ValidateToken(string(bytes.TrimSpace([]byte(token))))
	require.NoError(t, err)
	assert.Equal(t, "u42", claims.ViewerID())
}
