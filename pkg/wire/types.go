package wire

// Fixed byte lengths for randomly generated ids, matching the sizes the
// original service used at each new_id(size) call site.
const (
	AlbumIDBytes    = 16
	UserIDBytes     = 8
	FileIDBytes     = 16
	SessionKeyBytes = 32
)

// User is a registered account. password_hash is the argon2id encoded
// hash, never the plaintext password.
type User struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// FileMetadata is the client-supplied description of an uploaded file.
type FileMetadata struct {
	LastModified int64  `json:"last_modified"`
	Name         string `json:"name"`
	Mime         string `json:"mime"`
}

// File is one uploaded image's catalog record.
type File struct {
	OwnerID  string       `json:"owner_id"`
	Width    int32        `json:"width"`
	Height   int32        `json:"height"`
	Metadata FileMetadata `json:"metadata"`
}

// Role controls write access to an album. Owner and Editor can write;
// Reader can only read.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleReader Role = "reader"
)

// CanWrite reports whether r permits mutating an album's files and
// settings.
func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleEditor
}

// AlbumDescription is the user-editable part of an album: its display
// name and the IANA zone used to bucket files into Sections.
type AlbumDescription struct {
	Name     string `json:"name"`
	TimeZone string `json:"time_zone"`
}

// Album is the root record for one album. fragment_head, length,
// last_update, and date_range are maintained exclusively by the fragment
// engine; callers never set them directly. There is no owner_id field —
// ownership lives in user_to_album as a Role=Owner edge, never
// duplicated here (see DESIGN.md's Open Questions).
type Album struct {
	Description  AlbumDescription `json:"description"`
	FragmentHead uint64           `json:"fragment_head"`
	Length       uint64           `json:"length"`
	LastUpdate   int64            `json:"last_update"`
	DateRange    *DateRange       `json:"date_range,omitempty"`
}

// DateRange is the inclusive [min, max] day-bucket timestamp spanned by
// an album's Top. Nil when the album has no files.
type DateRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// AlbumWithRole is the "metadata" response ServeFragment returns: the
// album record plus the caller's own role on it, so a client never needs
// a second round trip to ListAlbums just to learn whether it can write.
type AlbumWithRole struct {
	Album
	Role Role `json:"role"`
}

// FileListEntry is one row of ListFiles's response: a file's per-owner
// name next to the id a client dereferences it with.
type FileListEntry struct {
	Name   string `json:"name"`
	FileID string `json:"file_id"`
}

// ShareEntry is one row of ListShares's response.
type ShareEntry struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// SessionEntry is one row of ListSessions's response: a redacted key
// prefix rather than the live session key itself, matching the
// "log out other devices" list the original CLI renders from
// GET /user/auth's {key_prefixes: [...]}.
type SessionEntry struct {
	KeyPrefix string `json:"key_prefix"`
}
