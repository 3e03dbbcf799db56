package wire

import (
	"encoding/json"
	"fmt"
)

// Command kinds the deletion journal dispatches on.
const (
	CmdAlbum = "album"
	CmdFile  = "file"
	CmdUser  = "user"
)

// DeleteCommand is one entry in the delete_journal tree: a kind tag plus
// its kind-specific payload, serialized as json.RawMessage so the
// journal can store heterogeneous commands in one append-only tree and
// defer decoding to the handler that knows the shape.
type DeleteCommand struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// AlbumDeletePayload is the Data payload of a CmdAlbum command.
type AlbumDeletePayload struct {
	AlbumID string `json:"album_id"`
}

// FileDeletePayload is the Data payload of a CmdFile command. The file
// record is carried inline because files[file_id] may already be gone
// by the time replay runs the handler.
type FileDeletePayload struct {
	FileID string `json:"file_id"`
	File   File   `json:"file"`
}

// UserDeletePayload is the Data payload of a CmdUser command.
type UserDeletePayload struct {
	UserID string `json:"user_id"`
}

// NewAlbumDelete builds a DeleteCommand for the Album handler.
func NewAlbumDelete(albumID string) (DeleteCommand, error) {
	return encodeCommand(CmdAlbum, AlbumDeletePayload{AlbumID: albumID})
}

// NewFileDelete builds a DeleteCommand for the File handler.
func NewFileDelete(fileID string, file File) (DeleteCommand, error) {
	return encodeCommand(CmdFile, FileDeletePayload{FileID: fileID, File: file})
}

// NewUserDelete builds a DeleteCommand for the User handler.
func NewUserDelete(userID string) (DeleteCommand, error) {
	return encodeCommand(CmdUser, UserDeletePayload{UserID: userID})
}

func encodeCommand(kind string, payload interface{}) (DeleteCommand, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return DeleteCommand{}, fmt.Errorf("wire: encode %s command: %w", kind, err)
	}
	return DeleteCommand{Kind: kind, Data: data}, nil
}

// DecodeAlbum unmarshals cmd's payload as an AlbumDeletePayload. Callers
// must check cmd.Kind == CmdAlbum first.
func (c DeleteCommand) DecodeAlbum() (AlbumDeletePayload, error) {
	var p AlbumDeletePayload
	err := json.Unmarshal(c.Data, &p)
	return p, err
}

// DecodeFile unmarshals cmd's payload as a FileDeletePayload. Callers
// must check cmd.Kind == CmdFile first.
func (c DeleteCommand) DecodeFile() (FileDeletePayload, error) {
	var p FileDeletePayload
	err := json.Unmarshal(c.Data, &p)
	return p, err
}

// DecodeUser unmarshals cmd's payload as a UserDeletePayload. Callers
// must check cmd.Kind == CmdUser first.
func (c DeleteCommand) DecodeUser() (UserDeletePayload, error) {
	var p UserDeletePayload
	err := json.Unmarshal(c.Data, &p)
	return p, err
}
