// Package loader registers HTTP features on the fiber app.
//
// A feature reports its name and whether it can run with the current
// configuration (devicesync needs a snapshot source), then mounts its routes.
// The Manager loads enabled features in registration order and stops at the
// first failure, which aborts server startup.
package loader
