package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSandbox(t *testing.T) {
	_, err := NewSandbox("")
	assert.Error(t, err)

	s, err := NewSandbox("relative/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(s.Root()))
}

func TestSandbox_Resolve(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.pdf"), []byte("x"), 0o600))

	s, err := NewSandbox(root)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    string
		outside bool
		wantErr bool
	}{
		{name: "relative file", path: "a.pdf", want: filepath.Join(root, "a.pdf")},
		{name: "absolute file", path: filepath.Join(root, "a.pdf"), want: filepath.Join(root, "a.pdf")},
		{name: "empty is root", path: "", want: root},
		{name: "not yet existing", path: "sub/new.pdf", want: filepath.Join(root, "sub", "new.pdf")},
		{name: "dot-dot escape", path: "../escape.pdf", outside: true},
		{name: "absolute outside", path: filepath.Dir(root), outside: true},
		{name: "sibling with shared prefix", path: root + "-other/a.pdf", outside: true},
		{name: "nul byte", path: "a\x00.pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Resolve(tt.path)
			switch {
			case tt.outside:
				assert.True(t, errors.Is(err, ErrOutsideRoot), "got %v", err)
			case tt.wantErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSandbox_ResolveSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.pdf"), []byte("x"), 0o600))

	link := filepath.Join(root, "link.pdf")
	if err := os.Symlink(filepath.Join(outside, "secret.pdf"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	s, err := NewSandbox(root)
	require.NoError(t, err)
	_, err = s.Resolve("link.pdf")
	assert.True(t, errors.Is(err, ErrOutsideRoot))
}

func TestSandbox_ResolveDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "batch"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.pdf"), []byte("x"), 0o600))

	s, err := NewSandbox(root)
	require.NoError(t, err)

	got, err := s.ResolveDirectory("batch")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "batch"), got)

	_, err = s.ResolveDirectory("file.pdf")
	assert.Error(t, err)
	_, err = s.ResolveDirectory("missing")
	assert.Error(t, err)
	_, err = s.ResolveDirectory("..")
	assert.True(t, errors.Is(err, ErrOutsideRoot))
}
