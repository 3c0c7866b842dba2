// Package seeders provides a registry of seed functions for a fresh
// GrinFood install.
//
// Define a seeder in any file in this package:
//
//	func init() {
//	    seeders.Register("menu", SeedMenu)
//	}
//
//	func SeedMenu(ctx context.Context, a *app.Application) error {
//	    // create documents through the services …
//	    return nil
//	}
//
// Then run via CLI: grinfood seed
package seeders

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/shashiranjanraj/grinfood/internal/app"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

// SeederFunc is the signature for a seed function.
type SeederFunc func(ctx context.Context, a *app.Application) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// seedActor is the subject the seeders act as when a service demands a
// manager.
var seedActor = rbac.Subject{ID: "seeder"}

// Register adds a seeder to the global registry.
// Call this from init() in your seeder files.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists the registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// RunAll executes every registered seeder in registration order, printing
// progress to out. It stops on the first error.
func RunAll(ctx context.Context, a *app.Application, out io.Writer) error {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	if len(current) == 0 {
		fmt.Fprintln(out, "  (no seeders registered)")
		return nil
	}

	for _, e := range current {
		fmt.Fprintf(out, "  • Running seeder: %s … ", e.name)
		if err := e.fn(ctx, a); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}
