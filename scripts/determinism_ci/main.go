package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// phases are the CLI outputs that must be byte-identical across builds.
var phases = []struct {
	name string
	args []string
	ext  string
}{
	{"canonical", []string{"compile", "-format", "json"}, ".json"},
	{"listing", []string{"compile", "-format", "listing"}, ".txt"},
	{"export", []string{"export"}, ".go"},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "determinism check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK: determinism checks passed for phases canonical/listing/export")
}

func run() error {
	projectRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	tmpDir, err := os.MkdirTemp("", "apiblocks-determinism-ci-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	bin := filepath.Join(tmpDir, "apiblocks")
	if err := runCmd(projectRoot, "go", "build", "-o", bin, "./cmd/apiblocks"); err != nil {
		return err
	}

	workspaces, err := listWorkspaces(filepath.Join(projectRoot, "examples", "workspaces"))
	if err != nil {
		return err
	}
	if len(workspaces) == 0 {
		return fmt.Errorf("no workspaces under examples/workspaces")
	}

	for _, ws := range workspaces {
		base := filepath.Base(ws)
		for _, ph := range phases {
			first := filepath.Join(tmpDir, base+"."+ph.name+".1"+ph.ext)
			second := filepath.Join(tmpDir, base+"."+ph.name+".2"+ph.ext)
			for _, out := range []string{first, second} {
				args := append(append([]string{}, ph.args...), "-o", out, ws)
				if err := runCmd(projectRoot, bin, args...); err != nil {
					return fmt.Errorf("%s %s: %w", ph.name, base, err)
				}
			}
			if err := sameFile(first, second); err != nil {
				return fmt.Errorf("phase=%s drift detected for %s: %w", ph.name, base, err)
			}
		}
		fmt.Printf("ok  %s\n", base)
	}
	return nil
}

func listWorkspaces(dir string) ([]string, error) {
	var out []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml", "*.cue"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	sort.Strings(out)
	return out, nil
}

func sameFile(a, b string) error {
	da, err := os.ReadFile(a)
	if err != nil {
		return err
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return err
	}
	if !bytes.Equal(da, db) {
		return fmt.Errorf("%s and %s differ", filepath.Base(a), filepath.Base(b))
	}
	return nil
}

func runCmd(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
