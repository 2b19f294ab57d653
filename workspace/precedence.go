package workspace

// editorProtected reports whether a filesystem update for path must yield
// to editor-held content. That holds when the current batch opened the
// path, or when the path is open in the session and the current batch has
// not closed it. An explicit close lifts protection: it deliberately
// refreshes content from disk.
func editorProtected(u *Update, sess *Session, path string) bool {
	if u != nil && u.Opened {
		return true
	}
	if u != nil && u.Closed {
		return false
	}
	return sess.Open(path)
}
