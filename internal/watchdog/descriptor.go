package watchdog

import (
	"fmt"
	"os"
	"os/exec"
)

// Descriptor describes the child process a Command Watchdog supervises:
// program path, argument list, an environment overlay merged over the
// inherited environment, and an optional working directory. Build()
// enforces the same constraints as the original's descriptor builder: the
// program must exist and be executable, the working directory (if set)
// must exist, and at least one argument must be supplied.
type Descriptor struct {
	Program string
	Args    []string
	Env     map[string]string
	Dir     string
}

// NewDescriptor starts a Descriptor for program with the given arguments.
func NewDescriptor(program string, args ...string) *Descriptor {
	return &Descriptor{
		Program: program,
		Args:    args,
		Env:     map[string]string{},
	}
}

// WithEnv overlays name=value onto the inherited environment at spawn time.
func (d *Descriptor) WithEnv(name, value string) *Descriptor {
	d.Env[name] = value
	return d
}

// WithDir sets the child's working directory.
func (d *Descriptor) WithDir(dir string) *Descriptor {
	d.Dir = dir
	return d
}

// Build validates the descriptor, returning an error describing the first
// violated constraint.
func (d *Descriptor) Build() (*Descriptor, error) {
	if len(d.Args) == 0 {
		return nil, fmt.Errorf("watchdog: descriptor requires at least one argument")
	}

	path, err := exec.LookPath(d.Program)
	if err != nil {
		return nil, fmt.Errorf("watchdog: program %q not found or not executable: %w", d.Program, err)
	}
	d.Program = path

	if d.Dir != "" {
		info, err := os.Stat(d.Dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("watchdog: working directory %q does not exist", d.Dir)
		}
	}

	return d, nil
}

// environ merges the overlay onto the inherited environment, overlay wins.
func (d *Descriptor) environ() []string {
	base := os.Environ()
	if len(d.Env) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(d.Env))
	out = append(out, base...)
	for k, v := range d.Env {
		out = append(out, k+"="+v)
	}
	return out
}
