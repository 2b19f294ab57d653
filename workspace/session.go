package workspace

// Session tracks the set of paths currently open in the editor. It lives
// for one server session, persists across batches, and is mutated only by
// the open and close handlers.
type Session struct {
	open map[string]struct{}
}

func NewSession() *Session {
	return &Session{open: map[string]struct{}{}}
}

func (s *Session) Add(path string) {
	s.open[path] = struct{}{}
}

func (s *Session) Remove(path string) {
	delete(s.open, path)
}

// Open reports whether path is currently open in the editor.
func (s *Session) Open(path string) bool {
	_, ok := s.open[path]
	return ok
}

func (s *Session) Len() int {
	return len(s.open)
}
