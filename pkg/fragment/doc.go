/*
Package fragment implements the Album Fragment Engine: the component
that maintains one album's metadata as a two-level tree of immutable
JSON fragments (a Top indexing per-day Sections) inside the fragments
tree of pkg/kvstore.

# Algorithm

Every mutation stages changes in memory against an in-memory cache
keyed by day bucket; nothing touches the store until Commit runs the
full rewrite: delete the old Top, rewrite every
touched Section under a fresh fragment id (old ones are deleted in the
same transaction), then write a fresh Top and update the album's
fragment_head/length/last_update/date_range. Fragment immutability
between commits is what makes a served fragment's id a stable cache tag
an HTTP client may hold onto indefinitely.

The Engine's state machine is Opened -> Staged* -> Committed | Dropped:
once Commit runs the Engine must not be reused, and if Commit is never
called no mutation is observable.
*/
package fragment
