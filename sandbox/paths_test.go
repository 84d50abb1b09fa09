package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathPolicy(t *testing.T) {
	allowed := t.TempDir()
	outside := t.TempDir()

	blockedPatterns := []string{
		`\.env$`,
		`credentials`,
		`secrets`,
		`\.pem$`,
		`\.key$`,
		`password`,
		`\.ssh`,
	}

	policy, err := NewPathPolicy([]string{allowed}, blockedPatterns)
	require.NoError(t, err)

	t.Run("AllowedFile", func(t *testing.T) {
		path := filepath.Join(allowed, "app.log")
		require.NoError(t, os.WriteFile(path, []byte("line\n"), 0o600))

		real, err := policy.Resolve(path)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(real))
		assert.True(t, policy.Allowed(path))
	})

	t.Run("TrailingSlash", func(t *testing.T) {
		real, err := policy.Resolve(allowed + string(filepath.Separator))
		require.NoError(t, err)
		assert.NotEmpty(t, real)
	})

	t.Run("NonexistentFileUnderAllowedRoot", func(t *testing.T) {
		// A not-yet-created file still canonicalizes via its ancestors
		assert.True(t, policy.Allowed(filepath.Join(allowed, "does", "not", "exist.txt")))
	})

	t.Run("OutsideAllowedDirectories", func(t *testing.T) {
		_, err := policy.Resolve(filepath.Join(outside, "file.txt"))
		require.Error(t, err)

		var denied *DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Contains(t, denied.Reason, "outside allowed directories")
	})

	t.Run("EtcPasswd", func(t *testing.T) {
		assert.False(t, policy.Allowed("/etc/passwd"))
	})

	t.Run("TraversalOutOfAllowedRoot", func(t *testing.T) {
		assert.False(t, policy.Allowed(filepath.Join(allowed, "..", "..", "etc", "passwd")))
	})

	t.Run("PrefixIsNotSubstring", func(t *testing.T) {
		// /tmp/xyz-sibling must not satisfy an allow-prefix of /tmp/xyz
		assert.False(t, policy.Allowed(allowed+"-sibling/file.txt"))
	})

	t.Run("BlockedPatterns", func(t *testing.T) {
		for _, name := range []string{
			".env",
			"credentials.json",
			"secrets/token.txt",
			"server.pem",
			"private.key",
			"password.txt",
			".ssh/id_rsa",
		} {
			assert.False(t, policy.Allowed(filepath.Join(allowed, name)), name)
		}
	})

	t.Run("BlockedPatternCaseInsensitive", func(t *testing.T) {
		assert.False(t, policy.Allowed(filepath.Join(allowed, "CREDENTIALS.json")))
	})

	t.Run("SymlinkEscapeRejected", func(t *testing.T) {
		secret := filepath.Join(outside, "secret.txt")
		require.NoError(t, os.WriteFile(secret, []byte("x"), 0o600))

		link := filepath.Join(allowed, "innocent.txt")
		require.NoError(t, os.Symlink(secret, link))

		// The symlink lives under the allowed root but resolves outside it
		assert.False(t, policy.Allowed(link))
	})

	t.Run("SymlinkToBlockedFileRejected", func(t *testing.T) {
		env := filepath.Join(allowed, ".env")
		require.NoError(t, os.WriteFile(env, []byte("KEY=v"), 0o600))

		alias := filepath.Join(allowed, "settings.txt")
		require.NoError(t, os.Symlink(env, alias))

		assert.False(t, policy.Allowed(alias))
	})

	t.Run("InvalidBlockedPattern", func(t *testing.T) {
		_, err := NewPathPolicy([]string{allowed}, []string{"[unclosed"})
		require.Error(t, err)
	})
}
