//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Replays every trace under assets/traces.
func (Run) Replay() error {
	mg.Deps(Build.Replay)

	traces, err := filepath.Glob("assets/traces/*.toml")
	if err != nil {
		return err
	}
	for _, tr := range traces {
		fmt.Printf("Replaying %s...\n", tr)
		if _, err := executeCmd("bin/statetrack", withArgs("-config", "assets/config.toml", "-trace", tr), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// Replays one trace and replays it again whenever it or the config changes.
func (Run) Watch(trace string) error {
	mg.Deps(Build.Replay)
	_, err := executeCmd("bin/statetrack", withArgs("-config", "assets/config.toml", "-trace", trace, "-watch"), withStream())
	return err
}
