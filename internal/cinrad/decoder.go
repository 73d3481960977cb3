package cinrad

import (
	"compress/bzip2"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// Block sizes, per the STD format manual.
const (
	genericHeaderSize = 32
	siteConfigSize    = 128
	taskConfigSize    = 256
	cutConfigSize     = 256
	radialHeaderSize  = 64
	momentHeaderSize  = 32
)

const magic = "RSTM"

// Raw wire structs. Field order and widths mirror the file layout exactly;
// binary.Read with these is the whole offset arithmetic.

type rawGenericHeader struct {
	Magic        [4]byte
	MajorVersion uint16
	MinorVersion uint16
	GenericType  int32
	ProductType  int32
	Reserved     [16]byte
}

type rawSiteConfig struct {
	SiteCode              [8]byte
	SiteName              [32]byte
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
	Reserved              [46]byte
}

type rawTaskConfig struct {
	TaskName                 [32]byte
	TaskDescription          [128]byte
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
	Reserved                 [40]byte
}

type rawCutConfig struct {
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
	// The manual lists two maximum-range and two sample words; only the
	// second of each pair is meaningful.
	MaximumRange1   int32
	MaximumRange2   int32
	StartRange      int32
	Sample1         int32
	Sample2         int32
	PhaseMode       int32
	AtmosphericLoss float32
	NyquistSpeed    float32
	MomentsMask     int64
	MomentsSizeMask int64
	MiscFilterMask  int32
	SQIThreshold    float32
	SIGThreshold    float32
	CSRThreshold    float32
	LOGThreshold    float32
	CPAThreshold    float32
	PMIThreshold    float32
	DPLOGThreshold  float32
	ThresholdReserved [4]byte
	DBTMask           int32
	DBZMask           int32
	VelocityMask      int32
	SpectrumWidthMask int32
	DPMask            int32
	MaskReserved      [12]byte
	ScanSync          [4]byte
	Direction         int32
	GroundClutterClassifierType  int16
	GroundClutterFilterType      int16
	GroundClutterFilterNotchWidth int16
	GroundClutterFilterWindow    int16
	Reserved                     [72]byte
}

type rawRadialHeader struct {
	RadialState     int32
	SpotBlank       int32
	SequenceNumber  int32
	RadialNumber    int32
	ElevationNumber int32
	Azimuth         float32
	Elevation       float32
	Seconds         int32
	Microseconds    int32
	LengthOfData    int32
	MomentNumber    int32
	Reserved1       int16
	HorizontalEstimatedNoise int16
	VerticalEstimatedNoise   int16
	ZipType                  byte
	Reserved2                [13]byte
}

type rawMomentHeader struct {
	DataType  int32
	Scale     int32
	Offset    int32
	BinLength int16
	Flags     int16
	Length    int32
	Reserved  [12]byte
}

// ReadFile opens path and decodes it. Files whose name ends in "bz2" are
// decompressed transparently; every later read is identical either way.
func ReadFile(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open radar file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, "bz2") {
		r = bzip2.NewReader(f)
	}
	vol, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return vol, nil
}

// Decode reads one complete volume from r. It either reaches the terminating
// radial (state 4) and returns a fully populated Volume, or fails with no
// volume at all.
func Decode(r io.Reader) (*Volume, error) {
	c := newCursor(r)
	vol := &Volume{Radial: make(map[Moment]*MomentSeries)}

	var gh rawGenericHeader
	if err := c.decode(genericHeaderSize, &gh); err != nil {
		return nil, err
	}
	if cutString(gh.Magic[:]) != magic {
		return nil, fmt.Errorf("%w: got %q", ErrBadMagic, cutString(gh.Magic[:]))
	}
	vol.Header = GenericHeader{
		Magic:        magic,
		MajorVersion: gh.MajorVersion,
		MinorVersion: gh.MinorVersion,
		GenericType:  gh.GenericType,
		ProductType:  gh.ProductType,
	}

	var sc rawSiteConfig
	if err := c.decode(siteConfigSize, &sc); err != nil {
		return nil, err
	}
	vol.Site = SiteConfig{
		SiteCode:              cutGBK(sc.SiteCode[:]),
		SiteName:              cutGBK(sc.SiteName[:]),
		Latitude:              sc.Latitude,
		Longitude:             sc.Longitude,
		AntennaHeight:         sc.AntennaHeight,
		GroundHeight:          sc.GroundHeight,
		Frequency:             sc.Frequency,
		BeamWidthHori:         sc.BeamWidthHori,
		BeamWidthVert:         sc.BeamWidthVert,
		RDAVersion:            sc.RDAVersion,
		RadarType:             sc.RadarType,
		AntennaGain:           sc.AntennaGain,
		TransmittingFeederLoss: sc.TransmittingFeederLoss,
		ReceivingFeederLoss:   sc.ReceivingFeederLoss,
		OtherLoss:             sc.OtherLoss,
	}

	var tc rawTaskConfig
	if err := c.decode(taskConfigSize, &tc); err != nil {
		return nil, err
	}
	vol.Task = TaskConfig{
		TaskName:                 cutGBK(tc.TaskName[:]),
		TaskDescription:          cutGBK(tc.TaskDescription[:]),
		PolarizationType:         tc.PolarizationType,
		ScanType:                 tc.ScanType,
		PulseWidth:               tc.PulseWidth,
		ScanStartTime:            tc.ScanStartTime,
		CutNumber:                tc.CutNumber,
		HorizontalNoise:          tc.HorizontalNoise,
		VerticalNoise:            tc.VerticalNoise,
		HorizontalCalibration:    tc.HorizontalCalibration,
		VerticalCalibration:      tc.VerticalCalibration,
		HorizontalNoiseTemperature: tc.HorizontalNoiseTemperature,
		VerticalNoiseTemperature: tc.VerticalNoiseTemperature,
		ZDRCalibration:           tc.ZDRCalibration,
		PhiDPCalibration:         tc.PhiDPCalibration,
		LDRCalibration:           tc.LDRCalibration,
	}

	for i := int32(0); i < tc.CutNumber; i++ {
		var cc rawCutConfig
		if err := c.decode(cutConfigSize, &cc); err != nil {
			return nil, fmt.Errorf("cut config %d: %w", i+1, err)
		}
		vol.Cuts = append(vol.Cuts, CutConfig{
			ProcessMode:       cc.ProcessMode,
			WaveForm:          cc.WaveForm,
			PRF1:              cc.PRF1,
			PRF2:              cc.PRF2,
			DealiasingMode:    cc.DealiasingMode,
			Azimuth:           cc.Azimuth,
			Elevation:         cc.Elevation,
			StartAngle:        cc.StartAngle,
			EndAngle:          cc.EndAngle,
			AngularResolution: cc.AngularResolution,
			ScanSpeed:         cc.ScanSpeed,
			LogResolution:     cc.LogResolution,
			DopplerResolution: cc.DopplerResolution,
			MaximumRange:      cc.MaximumRange2,
			StartRange:        cc.StartRange,
			Sample:            cc.Sample2,
			PhaseMode:         cc.PhaseMode,
			AtmosphericLoss:   cc.AtmosphericLoss,
			NyquistSpeed:      cc.NyquistSpeed,
			MomentsMask:       cc.MomentsMask,
			MomentsSizeMask:   cc.MomentsSizeMask,
			MiscFilterMask:    cc.MiscFilterMask,
			SQIThreshold:      cc.SQIThreshold,
			SIGThreshold:      cc.SIGThreshold,
			CSRThreshold:      cc.CSRThreshold,
			LOGThreshold:      cc.LOGThreshold,
			CPAThreshold:      cc.CPAThreshold,
			PMIThreshold:      cc.PMIThreshold,
			DPLOGThreshold:    cc.DPLOGThreshold,
			DBTMask:           cc.DBTMask,
			DBZMask:           cc.DBZMask,
			VelocityMask:      cc.VelocityMask,
			SpectrumWidthMask: cc.SpectrumWidthMask,
			DPMask:            cc.DPMask,
			Direction:         cc.Direction,
			GroundClutterClassifierType:  cc.GroundClutterClassifierType,
			GroundClutterFilterType:      cc.GroundClutterFilterType,
			GroundClutterFilterNotchWidth: cc.GroundClutterFilterNotchWidth,
			GroundClutterFilterWindow:    cc.GroundClutterFilterWindow,
		})
	}

	// Radial stream. There is no radial count: the loop ends with the radial
	// whose state is RadialStateLast, after its moments are consumed.
	for {
		var rh rawRadialHeader
		if err := c.decode(radialHeaderSize, &rh); err != nil {
			return nil, fmt.Errorf("radial header: %w", err)
		}

		for mi := int32(0); mi < rh.MomentNumber; mi++ {
			var mh rawMomentHeader
			if err := c.decode(momentHeaderSize, &mh); err != nil {
				return nil, fmt.Errorf("moment header: %w", err)
			}
			payload, err := c.block(int(mh.Length))
			if err != nil {
				return nil, fmt.Errorf("moment payload: %w", err)
			}

			key := Moment(mh.DataType)
			if !key.Valid() {
				return nil, fmt.Errorf("%w: %d", ErrUnknownDataType, mh.DataType)
			}
			row, err := decodeBins(payload, mh.BinLength, mh.Scale, mh.Offset)
			if err != nil {
				return nil, fmt.Errorf("moment %s: %w", key, err)
			}

			series, ok := vol.Radial[key]
			if !ok {
				series = &MomentSeries{}
				vol.Radial[key] = series
			}
			series.appendRadial(row, &rh)
		}

		if rh.RadialState == RadialStateLast {
			break
		}
	}

	return vol, nil
}

// decodeBins converts a raw payload to physical values: unsigned 8- or
// 16-bit bins widened to float64, then (raw-offset)/scale for positive
// scales and (raw-offset)*scale otherwise. The sign of the scale selects
// between the format's two encoding modes.
func decodeBins(payload []byte, binLength int16, scale, offset int32) ([]float64, error) {
	var raw []float64
	switch binLength {
	case 1:
		raw = make([]float64, len(payload))
		for i, b := range payload {
			raw[i] = float64(b)
		}
	case 2:
		if len(payload)%2 != 0 {
			return nil, fmt.Errorf("%w: odd payload length %d for 2-byte bins", ErrBadLength, len(payload))
		}
		raw = make([]float64, len(payload)/2)
		for i := range raw {
			raw[i] = float64(binary.LittleEndian.Uint16(payload[2*i:]))
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBinLength, binLength)
	}

	s, o := float64(scale), float64(offset)
	for i, v := range raw {
		if scale > 0 {
			raw[i] = (v - o) / s
		} else {
			raw[i] = (v - o) * s
		}
	}
	return raw, nil
}
