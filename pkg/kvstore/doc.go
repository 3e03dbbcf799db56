/*
Package kvstore is the thin façade the catalog, fragment engine, and
deletion journal all sit on top of. It hides bbolt behind named trees and
a single transaction primitive.

# Architecture

	┌──────────────────────── KV STORE ─────────────────────────┐
	│                                                             │
	│  ┌───────────────────────────────────────────┐            │
	│  │              *bolt.DB                      │            │
	│  │  one file, one writer, many readers        │            │
	│  └──────────────────┬──────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼──────────────────────────┐          │
	│  │                Trees (buckets)                │          │
	│  │  users, emails, sessions, files, file_names,  │          │
	│  │  albums, user_to_album, album_to_user,        │          │
	│  │  inclusions, inclusions_by_album, fragments,  │          │
	│  │  delete_journal, sequences                    │          │
	│  └──────────────────┬──────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼──────────────────────────┐          │
	│  │          Update(body) / View(body)            │          │
	│  │  opens a *bolt.Tx, hands the body a *Tx,       │          │
	│  │  reruns the body on a retryable storage       │          │
	│  │  error                                        │          │
	│  └────────────────────────────────────────────┘           │
	└─────────────────────────────────────────────────────────────┘

bbolt itself only ever allows one writer at a time, so in practice a
transaction body never actually collides with another writer — there is
nothing to retry against. The retry loop exists anyway because the
store's transaction contract is not "runs once": a body may be asked to
run again if it returns catalogerr.ErrStorage, and bodies are written
(no captured iterators, no external I/O) to tolerate that.
*/
package kvstore
