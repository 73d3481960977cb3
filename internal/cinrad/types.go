package cinrad

import (
	"sort"
	"time"
)

// GenericHeader is the 32-byte file header. The magic field must equal
// "RSTM" or the file is rejected before anything else is read.
type GenericHeader struct {
	Magic        string
	MajorVersion uint16
	MinorVersion uint16
	GenericType  int32
	ProductType  int32
}

// SiteConfig is the 128-byte station block: where the radar is and what the
// hardware looks like. Latitude/longitude are degrees, antenna and ground
// heights meters.
type SiteConfig struct {
	SiteCode              string
	SiteName              string
	Latitude              float32
	Longitude             float32
	AntennaHeight         int32
	GroundHeight          int32
	Frequency             float32
	BeamWidthHori         float32
	BeamWidthVert         float32
	RDAVersion            int32
	RadarType             int16
	AntennaGain           int16
	TransmittingFeederLoss int16
	ReceivingFeederLoss   int16
	OtherLoss             int16
}

// TaskConfig is the 256-byte scan-task block. TaskName doubles as the VCP
// identifier for standard-elevation lookup. CutNumber drives the
// cut-configuration loop.
type TaskConfig struct {
	TaskName                 string
	TaskDescription          string
	PolarizationType         int32
	ScanType                 int32
	PulseWidth               int32
	ScanStartTime            int32
	CutNumber                int32
	HorizontalNoise          float32
	VerticalNoise            float32
	HorizontalCalibration    float32
	VerticalCalibration      float32
	HorizontalNoiseTemperature float32
	VerticalNoiseTemperature float32
	ZDRCalibration           float32
	PhiDPCalibration         float32
	LDRCalibration           float32
}

// CutConfig is one 256-byte elevation-sweep layer configuration. Cuts are
// stored in scan order; layer id N is Cuts[N-1]. LogResolution and
// DopplerResolution are the range bin lengths ("ku length") in meters.
type CutConfig struct {
	ProcessMode       int32
	WaveForm          int32
	PRF1              float32
	PRF2              float32
	DealiasingMode    int32
	Azimuth           float32
	Elevation         float32
	StartAngle        float32
	EndAngle          float32
	AngularResolution float32
	ScanSpeed         float32
	LogResolution     int32
	DopplerResolution int32
	MaximumRange      int32
	StartRange        int32
	Sample            int32
	PhaseMode         int32
	AtmosphericLoss   float32
	NyquistSpeed      float32
	MomentsMask       int64
	MomentsSizeMask   int64
	MiscFilterMask    int32
	SQIThreshold      float32
	SIGThreshold      float32
	CSRThreshold      float32
	LOGThreshold      float32
	CPAThreshold      float32
	PMIThreshold      float32
	DPLOGThreshold    float32
	DBTMask           int32
	DBZMask           int32
	VelocityMask      int32
	SpectrumWidthMask int32
	DPMask            int32
	Direction         int32
	GroundClutterClassifierType  int16
	GroundClutterFilterType      int16
	GroundClutterFilterNotchWidth int16
	GroundClutterFilterWindow    int16
}

// RadialStateLast marks the final radial of the volume; the decode loop
// terminates after consuming its moments.
const RadialStateLast = 4

// MomentSeries holds every radial of one moment as parallel arrays: position
// i across all fields describes the same physical beam. Radials are appended
// in file order, which is elevation-cut-major, so all rows of one cut form a
// contiguous run. Extend only through appendRadial, which grows every array
// together.
type MomentSeries struct {
	Rows            [][]float64 // decoded bin values, one row per radial
	RowLengths      []int
	RadialState     []int32
	SpotBlank       []int32
	SequenceNumber  []int32
	RadialNumber    []int32
	ElevationNumber []int32 // 1-based layer id, foreign key into Volume.Cuts
	Azimuth         []float64
	Elevation       []float64
	Seconds         []int32
	Microseconds    []int32
	HorizontalEstimatedNoise []int16
	VerticalEstimatedNoise   []int16
}

// Len returns the number of radials recorded for this moment.
func (s *MomentSeries) Len() int { return len(s.Rows) }

func (s *MomentSeries) appendRadial(row []float64, h *rawRadialHeader) {
	s.Rows = append(s.Rows, row)
	s.RowLengths = append(s.RowLengths, len(row))
	s.RadialState = append(s.RadialState, h.RadialState)
	s.SpotBlank = append(s.SpotBlank, h.SpotBlank)
	s.SequenceNumber = append(s.SequenceNumber, h.SequenceNumber)
	s.RadialNumber = append(s.RadialNumber, h.RadialNumber)
	s.ElevationNumber = append(s.ElevationNumber, h.ElevationNumber)
	s.Azimuth = append(s.Azimuth, float64(h.Azimuth))
	s.Elevation = append(s.Elevation, float64(h.Elevation))
	s.Seconds = append(s.Seconds, h.Seconds)
	s.Microseconds = append(s.Microseconds, h.Microseconds)
	s.HorizontalEstimatedNoise = append(s.HorizontalEstimatedNoise, h.HorizontalEstimatedNoise)
	s.VerticalEstimatedNoise = append(s.VerticalEstimatedNoise, h.VerticalEstimatedNoise)
}

// Volume is a fully decoded volume scan. It is built in one pass by Decode
// and never mutated afterwards, so it may be shared across any number of
// concurrent readers without locking.
type Volume struct {
	Header GenericHeader
	Site   SiteConfig
	Task   TaskConfig
	Cuts   []CutConfig

	Radial map[Moment]*MomentSeries
}

// Moments returns the decoded moment tags in code order.
func (v *Volume) Moments() []Moment {
	out := make([]Moment, 0, len(v.Radial))
	for m := range v.Radial {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasElement reports whether layer layerID recorded any radials for moment m.
func (v *Volume) HasElement(layerID int, m Moment) bool {
	s, ok := v.Radial[m]
	if !ok {
		return false
	}
	for _, n := range s.ElevationNumber {
		if int(n) == layerID {
			return true
		}
	}
	return false
}

// ScanStart returns the task's scan start time.
func (v *Volume) ScanStart() time.Time {
	return time.Unix(int64(v.Task.ScanStartTime), 0).UTC()
}
