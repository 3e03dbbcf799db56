// Package catalog implements the album/file/permission store: the
// request-level operations a photo service exposes (create/update/list
// albums, add/remove files, share/unshare/list-shares, serve a
// fragment, upload/list files, user sign-up/login/logout/list-sessions/
// delete), run against pkg/kvstore, with the caller's session key
// authenticated by pkg/auth wherever the operation takes one.
//
// Every album and file mutation except DeleteAlbum follows the same
// shape: resolve the
// caller's session to a user id, open a
// single kvstore transaction touching every tree the operation needs,
// and return a typed error a caller can classify with
// catalogerr.Classify. Catalog methods never themselves decide HTTP
// status codes; that's left to whatever transport wraps this package.
package catalog
