package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store keeps uploaded book files on local disk, one directory per
// Telegram account: <root>/<telegram_id>/<filename>.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

const maxNameLen = 100

// Save writes data under the user's directory and returns the path used.
// The filename is sanitized first; when a file with the same name already
// exists, a numeric suffix goes before the extension.
func (s *Store) Save(telegramID, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.root, telegramID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create user dir: %w", err)
	}

	name := sanitizeName(filename)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	target := filepath.Join(dir, name)
	for n := 1; ; n++ {
		_, err := os.Stat(target)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", target, err)
		}
		target = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}

// Remove deletes a previously saved file. A missing file is not an error.
func (s *Store) Remove(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

// sanitizeName reduces an uploaded filename to a single safe path
// component: directory parts are dropped, characters outside a small
// allowlist become underscores, and the result is length-capped.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_' || r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name = strings.Trim(b.String(), ". ")

	if len(name) > maxNameLen {
		ext := filepath.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:maxNameLen-len(ext)] + ext
	}
	if name == "" {
		name = "upload"
	}
	return name
}
