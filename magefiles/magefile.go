// Package main contains Mage build targets for postbot developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories a local run expects.
var projectDirs = []string{
	"activity",
	".secrets",
}

const (
	binDir  = "bin"
	binName = "postbot"
	cmdPkg  = "./cmd/postbot"
)

// Init creates the working directories and an example config.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat("postbot.yaml"); os.IsNotExist(err) {
		if err := os.WriteFile("postbot.yaml", []byte(exampleConfig), 0o644); err != nil {
			return fmt.Errorf("writing postbot.yaml: %w", err)
		}
		fmt.Println("   postbot.yaml")
	}
	fmt.Println("Project initialized. Put API keys in .secrets/ or the environment.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Demo builds the binary and performs one run with canned posts and
// simulated publishing.
func Demo() error {
	mg.Deps(Build)
	if err := sh.RunV(filepath.Join(binDir, binName), "--demo"); err != nil {
		return err
	}
	return sh.RunV(filepath.Join(binDir, binName), "history", "--limit", "5")
}

const exampleConfig = `# postbot configuration. Every key can be overridden with POSTBOT_<SECTION>_<KEY>.
ideas:
  policy: round-robin        # random or round-robin
generation:
  backend: openai            # openai, anthropic, gemini, or demo
  max_tokens: 280
  temperature: 0.7
  timeout: 30s
platform:
  name: Twitter
  char_limit: 280
  overflow: reject           # reject or truncate
publish:
  real: false                # true posts through the X API
activity:
  backend: jsonl             # jsonl or sqlite
  dir: activity
log:
  level: info
  trace_file: postbot.log
`
