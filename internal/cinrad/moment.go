package cinrad

import "fmt"

// Moment identifies one meteorological measurement channel (reflectivity,
// velocity, ...). Values are the data-type codes from the STD moment header.
type Moment int32

// Moment data-type codes, as written in the file.
const (
	DBT  Moment = 1  // total reflectivity
	DBZ  Moment = 2  // reflectivity
	V    Moment = 3  // radial velocity
	W    Moment = 4  // spectrum width
	SQI  Moment = 5
	CPA  Moment = 6
	ZDR  Moment = 7 // differential reflectivity
	LDR  Moment = 8
	CC   Moment = 9 // correlation coefficient
	DP   Moment = 10
	KDP  Moment = 11
	CP   Moment = 12
	HCL  Moment = 14
	CF   Moment = 15
	SNRH Moment = 16
	SNRV Moment = 17
	Zc   Moment = 32
	Vc   Moment = 33
	Wc   Moment = 34
	ZDRc Moment = 35
)

// momentNames is the fixed code table from the STD format manual. Codes
// outside it are a decode error, not a skippable unknown.
var momentNames = map[Moment]string{
	DBT:  "dBT",
	DBZ:  "dBZ",
	V:    "V",
	W:    "W",
	SQI:  "SQI",
	CPA:  "CPA",
	ZDR:  "ZDR",
	LDR:  "LDR",
	CC:   "CC",
	DP:   "DP",
	KDP:  "KDP",
	CP:   "CP",
	HCL:  "HCL",
	CF:   "CF",
	SNRH: "SNRH",
	SNRV: "SNRV",
	Zc:   "Zc",
	Vc:   "Vc",
	Wc:   "Wc",
	ZDRc: "ZDRc",
}

func (m Moment) String() string {
	if s, ok := momentNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Moment(%d)", int32(m))
}

// Valid reports whether m is a code from the fixed table.
func (m Moment) Valid() bool {
	_, ok := momentNames[m]
	return ok
}

// ParseMoment maps a moment name like "dBZ" or "ZDR" back to its code.
// Matching is exact: the format manual's names are case-sensitive.
func ParseMoment(s string) (Moment, error) {
	for m, name := range momentNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDataType, s)
}
