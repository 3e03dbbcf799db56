// Package config reads the YAML configuration photocore-admin loads at
// startup: where the bbolt data file and image derivative directories
// live, how to log, and what address the maintenance metrics server
// binds to.
package config
