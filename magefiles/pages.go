//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Download fetches the page titled title into out using the freshly built binary.
func Download(title, out string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "download", title, out)
}

// Upload renders formulas in in and replaces the page titled title. Attachments
// are only uploaded when the config sets "dry_run": false.
func Upload(in, title string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "upload", in, title)
}
