package analysis

// Levels is the smoothed audio feature snapshot for one analyzed frame.
type Levels struct {
	Bass        float64
	Drums       float64
	Instruments float64
	Kick        bool
}

// Spectra carries the raw byte snapshots sampled for one tick. Any slice may
// be empty when its source is unavailable.
type Spectra struct {
	Main        []byte
	Drums       []byte
	Instruments []byte
	// Wave is the main source's time-domain snapshot (128 = silence).
	Wave []byte
}

// Request is one unit of extraction work.
type Request struct {
	Main        []byte
	Drums       []byte
	Instruments []byte
	Frame       uint64
	Time        float64
}

// Config tunes the extractor. DefaultConfig holds the shipped values.
type Config struct {
	BassBand        Band    `yaml:"bass_band"`
	DrumsBand       Band    `yaml:"drums_band"`
	InstrumentsBand Band    `yaml:"instruments_band"`
	BassAlpha       float64 `yaml:"bass_alpha"`
	DrumsAlpha      float64 `yaml:"drums_alpha"`
	InstrumentAlpha float64 `yaml:"instruments_alpha"`
	KickThreshold   float64 `yaml:"kick_threshold"`
	// Divisor throttles bass and instruments to one update every Divisor frames.
	Divisor int `yaml:"divisor"`
	// Offset shifts the bass level against playback, in seconds.
	Offset        float64 `yaml:"offset"`
	HistoryLength int     `yaml:"history_length"`
}

func DefaultConfig() Config {
	return Config{
		BassBand:        Band{Lo: 0, Hi: 0.10},
		DrumsBand:       Band{Lo: 0, Hi: 0.08},
		InstrumentsBand: Band{Lo: 0.30, Hi: 1},
		BassAlpha:       0.7,
		DrumsAlpha:      0.7,
		InstrumentAlpha: 0.6,
		KickThreshold:   0.68,
		Divisor:         2,
		Offset:          0,
		HistoryLength:   300,
	}
}

// Extractor reduces three frequency snapshots (main, drums stem, instruments
// stem) to smoothed scalar levels. It owns all smoothing state.
type Extractor struct {
	cfg     Config
	bass    Smoother
	drums   Smoother
	instr   Smoother
	history *OffsetRing
	last    Levels
}

func NewExtractor(cfg Config) *Extractor {
	if cfg.Divisor < 1 {
		cfg.Divisor = 1
	}
	return &Extractor{
		cfg:     cfg,
		bass:    Smoother{Alpha: cfg.BassAlpha},
		drums:   Smoother{Alpha: cfg.DrumsAlpha},
		instr:   Smoother{Alpha: cfg.InstrumentAlpha},
		history: NewOffsetRing(cfg.HistoryLength),
	}
}

// Analyze processes one request. Bass and instruments only recompute on
// frames divisible by the divisor and otherwise repeat their previous value;
// drums recompute on every call. A missing snapshot reads as 0 and leaves the
// corresponding smoothing state untouched.
func (e *Extractor) Analyze(req Request) Levels {
	update := req.Frame%uint64(e.cfg.Divisor) == 0

	out := e.last
	if len(req.Main) == 0 {
		out.Bass = 0
	} else if update {
		e.history.Push(req.Time, e.bass.Step(e.cfg.BassBand.Level(req.Main)))
		out.Bass = e.history.Lookup(req.Time, e.cfg.Offset)
	}

	if len(req.Instruments) == 0 {
		out.Instruments = 0
	} else if update {
		out.Instruments = e.instr.Step(e.cfg.InstrumentsBand.Level(req.Instruments))
	}

	if len(req.Drums) == 0 {
		out.Drums = 0
	} else {
		out.Drums = e.drums.Step(e.cfg.DrumsBand.Level(req.Drums))
	}
	out.Kick = Kick(out.Drums, e.cfg.KickThreshold)
	e.last = out
	return out
}

func (e *Extractor) Config() Config { return e.cfg }

// Reset zeroes every smoothed level and the bass history.
func (e *Extractor) Reset() {
	e.bass.Reset()
	e.drums.Reset()
	e.instr.Reset()
	e.history.Reset()
	e.last = Levels{}
}
