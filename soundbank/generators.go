package soundbank

// GeneratorType enumerates synthesis parameters using the SoundFont 2 numbering.
type GeneratorType int

const (
	GenStartAddrsOffset           GeneratorType = 0
	GenEndAddrOffset              GeneratorType = 1
	GenStartloopAddrsOffset       GeneratorType = 2
	GenEndloopAddrsOffset         GeneratorType = 3
	GenStartAddrsCoarseOffset     GeneratorType = 4
	GenModLfoToPitch              GeneratorType = 5
	GenVibLfoToPitch              GeneratorType = 6
	GenModEnvToPitch              GeneratorType = 7
	GenInitialFilterFc            GeneratorType = 8
	GenInitialFilterQ             GeneratorType = 9
	GenModLfoToFilterFc           GeneratorType = 10
	GenModEnvToFilterFc           GeneratorType = 11
	GenEndAddrsCoarseOffset       GeneratorType = 12
	GenModLfoToVolume             GeneratorType = 13
	GenChorusEffectsSend          GeneratorType = 15
	GenReverbEffectsSend          GeneratorType = 16
	GenPan                        GeneratorType = 17
	GenDelayModLFO                GeneratorType = 21
	GenFreqModLFO                 GeneratorType = 22
	GenDelayVibLFO                GeneratorType = 23
	GenFreqVibLFO                 GeneratorType = 24
	GenDelayModEnv                GeneratorType = 25
	GenAttackModEnv               GeneratorType = 26
	GenHoldModEnv                 GeneratorType = 27
	GenDecayModEnv                GeneratorType = 28
	GenSustainModEnv              GeneratorType = 29
	GenReleaseModEnv              GeneratorType = 30
	GenKeyNumToModEnvHold         GeneratorType = 31
	GenKeyNumToModEnvDecay        GeneratorType = 32
	GenDelayVolEnv                GeneratorType = 33
	GenAttackVolEnv               GeneratorType = 34
	GenHoldVolEnv                 GeneratorType = 35
	GenDecayVolEnv                GeneratorType = 36
	GenSustainVolEnv              GeneratorType = 37
	GenReleaseVolEnv              GeneratorType = 38
	GenKeyNumToVolEnvHold         GeneratorType = 39
	GenKeyNumToVolEnvDecay        GeneratorType = 40
	GenInstrument                 GeneratorType = 41
	GenKeyRange                   GeneratorType = 43
	GenVelRange                   GeneratorType = 44
	GenStartloopAddrsCoarseOffset GeneratorType = 45
	GenKeyNum                     GeneratorType = 46
	GenVelocity                   GeneratorType = 47
	GenInitialAttenuation         GeneratorType = 48
	GenEndloopAddrsCoarseOffset   GeneratorType = 50
	GenCoarseTune                 GeneratorType = 51
	GenFineTune                   GeneratorType = 52
	GenSampleID                   GeneratorType = 53
	GenSampleModes                GeneratorType = 54
	GenScaleTuning                GeneratorType = 56
	GenExclusiveClass             GeneratorType = 57
	GenOverridingRootKey          GeneratorType = 58

	// GeneratorCount is the size of a dense generator table.
	GeneratorCount = 60
)

// Sample loop modes stored in GenSampleModes.
const (
	LoopNone          = 0
	LoopContinuous    = 1
	LoopUntilReleased = 3
)

// Generator is one parameter assignment inside a zone.
type Generator struct {
	Type  GeneratorType
	Value int16
}

type generatorLimit struct {
	min, max, def int16
}

var generatorLimits = [GeneratorCount]generatorLimit{
	GenStartAddrsOffset:           {0, 32767, 0},
	GenEndAddrOffset:              {-32768, 0, 0},
	GenStartloopAddrsOffset:       {-32768, 32767, 0},
	GenEndloopAddrsOffset:         {-32768, 32767, 0},
	GenStartAddrsCoarseOffset:     {0, 32767, 0},
	GenModLfoToPitch:              {-12000, 12000, 0},
	GenVibLfoToPitch:              {-12000, 12000, 0},
	GenModEnvToPitch:              {-12000, 12000, 0},
	GenInitialFilterFc:            {1500, 13500, 13500},
	GenInitialFilterQ:             {0, 960, 0},
	GenModLfoToFilterFc:           {-12000, 12000, 0},
	GenModEnvToFilterFc:           {-12000, 12000, 0},
	GenEndAddrsCoarseOffset:       {-32768, 0, 0},
	GenModLfoToVolume:             {-960, 960, 0},
	GenChorusEffectsSend:          {0, 1000, 0},
	GenReverbEffectsSend:          {0, 1000, 0},
	GenPan:                        {-500, 500, 0},
	GenDelayModLFO:                {-12000, 5000, -12000},
	GenFreqModLFO:                 {-16000, 4500, 0},
	GenDelayVibLFO:                {-12000, 5000, -12000},
	GenFreqVibLFO:                 {-16000, 4500, 0},
	GenDelayModEnv:                {-12000, 5000, -12000},
	GenAttackModEnv:               {-12000, 8000, -12000},
	GenHoldModEnv:                 {-12000, 5000, -12000},
	GenDecayModEnv:                {-12000, 8000, -12000},
	GenSustainModEnv:              {0, 1000, 0},
	GenReleaseModEnv:              {-12000, 8000, -12000},
	GenKeyNumToModEnvHold:         {-1200, 1200, 0},
	GenKeyNumToModEnvDecay:        {-1200, 1200, 0},
	GenDelayVolEnv:                {-12000, 5000, -12000},
	GenAttackVolEnv:               {-12000, 8000, -12000},
	GenHoldVolEnv:                 {-12000, 5000, -12000},
	GenDecayVolEnv:                {-12000, 8000, -12000},
	GenSustainVolEnv:              {0, 1440, 0},
	GenReleaseVolEnv:              {-12000, 8000, -12000},
	GenKeyNumToVolEnvHold:         {-1200, 1200, 0},
	GenKeyNumToVolEnvDecay:        {-1200, 1200, 0},
	GenStartloopAddrsCoarseOffset: {-32768, 32767, 0},
	GenKeyNum:                     {-1, 127, -1},
	GenVelocity:                   {-1, 127, -1},
	GenInitialAttenuation:         {0, 1440, 0},
	GenEndloopAddrsCoarseOffset:   {-32768, 32767, 0},
	GenCoarseTune:                 {-120, 120, 0},
	GenFineTune:                   {-12700, 12700, 0},
	GenSampleModes:                {0, 3, 0},
	GenScaleTuning:                {0, 1200, 100},
	GenExclusiveClass:             {0, 127, 0},
	GenOverridingRootKey:          {-1, 127, -1},
}

// DefaultGeneratorValue returns the value a generator takes when no zone sets it.
func DefaultGeneratorValue(t GeneratorType) int16 {
	if t < 0 || int(t) >= GeneratorCount {
		return 0
	}
	return generatorLimits[t].def
}

// ClampGenerator limits v to the valid range of generator t.
func ClampGenerator(t GeneratorType, v int32) int16 {
	if t < 0 || int(t) >= GeneratorCount {
		return 0
	}
	l := generatorLimits[t]
	if l.min == 0 && l.max == 0 {
		return int16(clampInt32(v, -32768, 32767))
	}
	return int16(clampInt32(v, int32(l.min), int32(l.max)))
}

// NewGeneratorTable returns a dense table filled with default values.
func NewGeneratorTable() [GeneratorCount]int16 {
	var t [GeneratorCount]int16
	for i := range t {
		t[i] = generatorLimits[i].def
	}
	return t
}

// IsAbsoluteOnly reports generators that preset zones may not offset.
func IsAbsoluteOnly(t GeneratorType) bool {
	switch t {
	case GenStartAddrsOffset, GenEndAddrOffset, GenStartloopAddrsOffset, GenEndloopAddrsOffset,
		GenStartAddrsCoarseOffset, GenEndAddrsCoarseOffset, GenStartloopAddrsCoarseOffset,
		GenEndloopAddrsCoarseOffset, GenKeyNum, GenVelocity, GenSampleModes,
		GenExclusiveClass, GenOverridingRootKey, GenScaleTuning:
		return true
	}
	return false
}

var generatorNames = map[string]GeneratorType{
	"startAddrsOffset":           GenStartAddrsOffset,
	"endAddrOffset":              GenEndAddrOffset,
	"startloopAddrsOffset":       GenStartloopAddrsOffset,
	"endloopAddrsOffset":         GenEndloopAddrsOffset,
	"startAddrsCoarseOffset":     GenStartAddrsCoarseOffset,
	"modLfoToPitch":              GenModLfoToPitch,
	"vibLfoToPitch":              GenVibLfoToPitch,
	"modEnvToPitch":              GenModEnvToPitch,
	"initialFilterFc":            GenInitialFilterFc,
	"initialFilterQ":             GenInitialFilterQ,
	"modLfoToFilterFc":           GenModLfoToFilterFc,
	"modEnvToFilterFc":           GenModEnvToFilterFc,
	"endAddrsCoarseOffset":       GenEndAddrsCoarseOffset,
	"modLfoToVolume":             GenModLfoToVolume,
	"chorusEffectsSend":          GenChorusEffectsSend,
	"reverbEffectsSend":          GenReverbEffectsSend,
	"pan":                        GenPan,
	"delayModLFO":                GenDelayModLFO,
	"freqModLFO":                 GenFreqModLFO,
	"delayVibLFO":                GenDelayVibLFO,
	"freqVibLFO":                 GenFreqVibLFO,
	"delayModEnv":                GenDelayModEnv,
	"attackModEnv":               GenAttackModEnv,
	"holdModEnv":                 GenHoldModEnv,
	"decayModEnv":                GenDecayModEnv,
	"sustainModEnv":              GenSustainModEnv,
	"releaseModEnv":              GenReleaseModEnv,
	"keyNumToModEnvHold":         GenKeyNumToModEnvHold,
	"keyNumToModEnvDecay":        GenKeyNumToModEnvDecay,
	"delayVolEnv":                GenDelayVolEnv,
	"attackVolEnv":               GenAttackVolEnv,
	"holdVolEnv":                 GenHoldVolEnv,
	"decayVolEnv":                GenDecayVolEnv,
	"sustainVolEnv":              GenSustainVolEnv,
	"releaseVolEnv":              GenReleaseVolEnv,
	"keyNumToVolEnvHold":         GenKeyNumToVolEnvHold,
	"keyNumToVolEnvDecay":        GenKeyNumToVolEnvDecay,
	"startloopAddrsCoarseOffset": GenStartloopAddrsCoarseOffset,
	"keyNum":                     GenKeyNum,
	"velocity":                   GenVelocity,
	"initialAttenuation":         GenInitialAttenuation,
	"endloopAddrsCoarseOffset":   GenEndloopAddrsCoarseOffset,
	"coarseTune":                 GenCoarseTune,
	"fineTune":                   GenFineTune,
	"sampleModes":                GenSampleModes,
	"scaleTuning":                GenScaleTuning,
	"exclusiveClass":             GenExclusiveClass,
	"overridingRootKey":          GenOverridingRootKey,
}

// GeneratorByName looks up a generator by its SoundFont identifier.
func GeneratorByName(name string) (GeneratorType, bool) {
	t, ok := generatorNames[name]
	return t, ok
}

// Name returns the SoundFont identifier of the generator.
func (t GeneratorType) Name() string {
	for name, v := range generatorNames {
		if v == t {
			return name
		}
	}
	return ""
}

func clampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
