package sequencer

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	Major           = []int{0, 2, 4, 5, 7, 9, 11}
	NaturalMinor    = []int{0, 2, 3, 5, 7, 8, 10}
	Dorian          = []int{0, 2, 3, 5, 7, 9, 10}
	Lydian          = []int{0, 2, 4, 6, 7, 9, 11}
	MajorPentatonic = []int{0, 2, 4, 7, 9}
	MinorPentatonic = []int{0, 3, 5, 7, 10}
)

// Scale maps scale degrees to MIDI pitches. Degree 0 is Root; degrees wrap
// into neighbouring octaves in both directions.
type Scale struct {
	Root  int
	Steps []int
}

// ScaleByName returns a named scale rooted at root.
func ScaleByName(name string, root int) (Scale, error) {
	var steps []int
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "major", "ionian":
		steps = Major
	case "minor", "aeolian":
		steps = NaturalMinor
	case "dorian":
		steps = Dorian
	case "lydian":
		steps = Lydian
	case "pentatonic", "major-pentatonic":
		steps = MajorPentatonic
	case "minor-pentatonic":
		steps = MinorPentatonic
	default:
		return Scale{}, fmt.Errorf("unknown scale %q", name)
	}
	return Scale{Root: root, Steps: steps}, nil
}

// Pitch returns the MIDI pitch of degree, clamped to 0..127.
func (s Scale) Pitch(degree int) int {
	n := len(s.Steps)
	if n == 0 {
		return clampPitch(s.Root + degree)
	}
	oct := degree / n
	idx := degree % n
	if idx < 0 {
		idx += n
		oct--
	}
	return clampPitch(s.Root + oct*12 + s.Steps[idx])
}

// Pitches returns the pitches of degrees lo..hi inclusive.
func (s Scale) Pitches(lo, hi int) []int {
	var out []int
	for d := lo; d <= hi; d++ {
		out = append(out, s.Pitch(d))
	}
	return out
}

func clampPitch(p int) int {
	if p < 0 {
		return 0
	}
	if p > 127 {
		return 127
	}
	return p
}

var noteOffsets = map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}

// ParseNote converts a note name such as "C4", "f#3" or "Bb2" to a MIDI
// number, with C4 = 60.
func ParseNote(name string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return 0, fmt.Errorf("empty note name")
	}
	base, ok := noteOffsets[s[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note name %q", name)
	}
	s = s[1:]
	for len(s) > 0 && (s[0] == '#' || s[0] == 'b') {
		if s[0] == '#' {
			base++
		} else {
			base--
		}
		s = s[1:]
	}
	oct, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note name %q", name)
	}
	p := (oct+1)*12 + base
	if p < 0 || p > 127 {
		return 0, fmt.Errorf("note %q out of MIDI range", name)
	}
	return p, nil
}

// ParsePhrase parses whitespace-separated note names.
func ParsePhrase(phrase string) ([]int, error) {
	fields := strings.Fields(phrase)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		p, err := ParseNote(f)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
