/*
Package journal implements the crash-safe deletion cascade: Album, File,
and User deletes are recorded in the delete_journal tree before they run
and removed only once every step finishes, so a crash mid-cascade is
resumed by Restore on the next startup instead of leaving the store in a
half-deleted state.

Every handler is written as a sequence of idempotent steps (removing an
absent key, or calling fragment.Engine.Remove on a file already absent
from a Section, is always a no-op), so finish can run twice on the same
command without changing the outcome. The User handler issues nested
Album and File commands through Run itself, so each sub-command is
journaled in its own right before it executes — a crash between two
nested commands still leaves a resumable journal entry for the ones that
haven't finished yet.

The User handler enumerates owned files via file_names (the inclusions
tree can never be usefully prefixed by user id), and it only cascades
albums where the user holds Role Owner.
*/
package journal
