package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

// defaultsInstaller implements DefaultsInstaller with embedded filesystem.
type defaultsInstaller struct {
	embedFS embed.FS
}

// newDefaultsInstaller creates a new defaultsInstaller with the given embedded filesystem.
func newDefaultsInstaller(embedFS embed.FS) *defaultsInstaller {
	return &defaultsInstaller{embedFS: embedFS}
}

// installed maps embedded defaults to their names in the config directory.
var installed = []struct{ src, dst string }{
	{src: "defaults/config", dst: "config"},
	{src: "defaults/clients.yml", dst: "clients.example.yml"},
}

// Install creates the config directory and writes the default config and an example client
// data file. Existing files are never overwritten.
func (d *defaultsInstaller) Install(configDir string) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	for _, f := range installed {
		path := filepath.Join(configDir, f.dst)
		_, statErr := os.Stat(path)
		if statErr == nil {
			continue
		}
		if !os.IsNotExist(statErr) {
			return fmt.Errorf("check %s: %w", f.dst, statErr)
		}

		data, err := d.embedFS.ReadFile(f.src)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", f.src, err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", f.dst, err)
		}
	}
	return nil
}
