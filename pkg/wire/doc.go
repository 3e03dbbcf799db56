/*
Package wire defines every record the catalog persists or serializes on
the wire: users, files, albums, roles, and the deletion journal's
commands. Every type here is a single owned Go struct — there is no
borrowed/zero-copy variant, since a tracing-GC language has no reason to
carry one. Records round-trip through encoding/json: exported fields,
JSON tags only where the wire name differs from the Go field name.
*/
package wire
