package ambigen

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	intauto "github.com/cbegin/ambigen/internal/automaton"
	intlfo "github.com/cbegin/ambigen/internal/lfo"
	intloops "github.com/cbegin/ambigen/internal/loops"
	intls "github.com/cbegin/ambigen/internal/lsystem"
	intmarkov "github.com/cbegin/ambigen/internal/markov"
	intseq "github.com/cbegin/ambigen/internal/sequencer"
	intvoice "github.com/cbegin/ambigen/internal/voice"
	intweighted "github.com/cbegin/ambigen/internal/weighted"
)

type presetFunc func(seed uint64) ([]*intseq.Track, error)

var presets = map[string]presetFunc{
	"eno":       enoPreset,
	"markov":    markovPreset,
	"automaton": automatonPreset,
	"lsystem":   lsystemPreset,
	"walk":      walkPreset,
	"all":       allPreset,
}

// PresetNames lists the names Preset accepts.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset builds a named set of demo tracks. The same name and seed always
// produce the same music.
func Preset(name string, seed uint64) ([]*intseq.Track, error) {
	fn, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (want one of %s)", name, strings.Join(PresetNames(), ", "))
	}
	return fn(seed)
}

// rng derives an independent stream per generator from one seed.
func rng(seed uint64, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15^stream))
}

func mustNotes(phrase string) []int {
	p, err := intseq.ParsePhrase(phrase)
	if err != nil {
		panic(err)
	}
	return p
}

// enoPreset is a tape-loop piece: each pitch repeats on its own period and
// the periods share no common multiple within listening time.
func enoPreset(seed uint64) ([]*intseq.Track, error) {
	pitches := mustNotes("F3 Ab3 C4 Db4 Eb4 F4 Ab4")
	periods := []float64{17.8, 20.1, 23.6, 19.6, 31.8, 16.2, 25.5}
	r := rng(seed, 1)
	ls := make([]intloops.Loop, len(pitches))
	for i, p := range pitches {
		ls[i] = intloops.Loop{
			Name:    fmt.Sprintf("loop-%d", i),
			Period:  periods[i],
			Phase:   r.Float64() * 4,
			Payload: intseq.Note{Pitch: p, Duration: 4.5, Velocity: 0.45 + r.Float64()*0.2},
		}
	}
	gen, err := intloops.New(ls...)
	if err != nil {
		return nil, err
	}
	return []*intseq.Track{
		intseq.NewTrack("eno", &intseq.LoopSource{Gen: gen},
			intseq.WithProgram(intvoice.ProgramSine),
			intseq.WithSwell(intlfo.LFO{Depth: 0.3, RateHz: 1.0 / 47, Waveform: intlfo.WaveSine})),
	}, nil
}

func markovPreset(seed uint64) ([]*intseq.Track, error) {
	melody := intmarkov.New(2, rng(seed, 2))
	melody.Train(mustNotes("D4 F4 G4 A4 C5 A4 G4 F4 D4 C4 D4 F4 A4 G4 F4 G4 D4"))
	melody.Train(mustNotes("A4 C5 D5 C5 A4 G4 A4 F4 G4 D4"))
	rhythm := intmarkov.New(1, rng(seed, 3))
	rhythm.Train([]int{2, 2, 4, 2, 1, 1, 2, 4, 8, 2, 2, 4})
	src, err := intseq.NewMarkovSource(melody, mustNotes("D4 F4"), 0.25, 0.55)
	if err != nil {
		return nil, err
	}
	src.WithRhythm(rhythm, []int{2})
	return []*intseq.Track{
		intseq.NewTrack("markov", src,
			intseq.WithStart(1),
			intseq.WithProgram(intvoice.ProgramTriangle),
			intseq.WithPan(-24),
			intseq.WithSwell(intlfo.LFO{Depth: 0.4, RateHz: 1.0 / 23, Waveform: intlfo.WaveTriangle})),
	}, nil
}

func automatonPreset(seed uint64) ([]*intseq.Track, error) {
	ca, err := intauto.NewElementary(12, 90)
	if err != nil {
		return nil, err
	}
	r := rng(seed, 4)
	ca.SeedCenter()
	for i := 0; i < ca.Size(); i++ {
		if r.IntN(5) == 0 {
			ca.Set(i, true)
		}
	}
	return []*intseq.Track{
		intseq.NewTrack("automaton", &intseq.AutomatonSource{
			CA:       ca,
			Scale:    intseq.Scale{Root: 50, Steps: intseq.MinorPentatonic},
			Step:     1.5,
			Duration: 1.2,
			Velocity: 0.7,
		}, intseq.WithStart(2), intseq.WithProgram(intvoice.ProgramPulseB), intseq.WithPan(20)),
	}, nil
}

func lsystemPreset(seed uint64) ([]*intseq.Track, error) {
	rules := map[rune]string{
		'F': "F[+F]f[-F]F",
		'f': "ff",
	}
	// The seed picks how far the phrase grows.
	iterations := 2 + int(seed%2)
	symbols := intls.Generate("F", rules, iterations)
	notes, err := intls.Interpreter{Step: 2, Duration: 1}.Interpret(symbols)
	if err != nil {
		return nil, err
	}
	scale := intseq.Scale{Root: 62, Steps: intseq.Dorian}
	src, err := intseq.PhraseFromLSystem(notes, scale, 0, 0.35, 0.5, true)
	if err != nil {
		return nil, err
	}
	return []*intseq.Track{
		intseq.NewTrack("lsystem", src, intseq.WithStart(4), intseq.WithProgram(intvoice.ProgramPulseA), intseq.WithPan(40)),
	}, nil
}

func walkPreset(seed uint64) ([]*intseq.Track, error) {
	scale := intseq.Scale{Root: 55, Steps: intseq.Lydian}
	candidates := scale.Pitches(0, 14)
	bias := intweighted.Combine(intweighted.Stepwise(3), intweighted.Harmonic(len(scale.Steps), 4, 3, 2))
	walk, err := intweighted.NewWalk(rng(seed, 5), candidates, 7, bias)
	if err != nil {
		return nil, err
	}
	return []*intseq.Track{
		intseq.NewTrack("walk", &intseq.WalkSource{Walk: walk, Step: 0.75, Duration: 1.4, Velocity: 0.4},
			intseq.WithStart(0.5),
			intseq.WithProgram(intvoice.ProgramSine),
			intseq.WithPan(-40),
			intseq.WithSwell(intlfo.LFO{Depth: 0.5, RateHz: 1.0 / 31, Waveform: intlfo.WaveSine, Phase: 0.25})),
	}, nil
}

func allPreset(seed uint64) ([]*intseq.Track, error) {
	var out []*intseq.Track
	for _, fn := range []presetFunc{enoPreset, markovPreset, automatonPreset, lsystemPreset, walkPreset} {
		tracks, err := fn(seed)
		if err != nil {
			return nil, err
		}
		out = append(out, tracks...)
	}
	return out, nil
}
