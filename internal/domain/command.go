package domain

// Command is a navigation instruction sent by a remote.
type Command string

const (
	CommandGoto     Command = "goto"
	CommandNext     Command = "next"
	CommandPrevious Command = "previous"
)

// Apply resolves a remote command against the session position.
//
// next and previous clamp into [0, TotalSlides-1]; goto stores the supplied
// index verbatim, without clamping — remotes that scrub by raw index rely on
// reading the value back unchanged, so the asymmetry is intentional. Any
// other command is treated as opaque and leaves the position alone.
//
// Returns the resulting index and whether the command was interpreted here.
func (s *Session) Apply(cmd Command, slideIndex int) (int, bool) {
	switch cmd {
	case CommandGoto:
		s.CurrentSlideIndex = slideIndex
		return s.CurrentSlideIndex, true
	case CommandNext:
		next := s.CurrentSlideIndex + 1
		if last := s.TotalSlides - 1; next > last {
			next = last
		}
		if next < 0 {
			next = 0
		}
		s.CurrentSlideIndex = next
		return s.CurrentSlideIndex, true
	case CommandPrevious:
		prev := s.CurrentSlideIndex - 1
		if prev < 0 {
			prev = 0
		}
		s.CurrentSlideIndex = prev
		return s.CurrentSlideIndex, true
	default:
		return s.CurrentSlideIndex, false
	}
}
