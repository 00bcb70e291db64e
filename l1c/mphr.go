package l1c

import (
	"strconv"
	"strings"
	"time"
)

// mphrFieldNames lists the MPHR keys in their fixed order (GPFS 5.1). The
// Nth non-empty line of the record is the Nth key.
var mphrFieldNames = [...]string{
	"PRODUCT_NAME",
	"PARENT_PRODUCT_NAME_1",
	"PARENT_PRODUCT_NAME_2",
	"PARENT_PRODUCT_NAME_3",
	"PARENT_PRODUCT_NAME_4",
	"INSTRUMENT_ID",
	"INSTRUMENT_MODEL",
	"PRODUCT_TYPE",
	"PROCESSING_LEVEL",
	"SPACECRAFT_ID",
	"SENSING_START",
	"SENSING_END",
	"SENSING_START_THEORETICAL",
	"SENSING_END_THEORETICAL",
	"PROCESSING_CENTRE",
	"PROCESSOR_MAJOR_VERSION",
	"PROCESSOR_MINOR_VERSION",
	"FORMAT_MAJOR_VERSION",
	"FORMAT_MINOR_VERSION",
	"PROCESSING_TIME_START",
	"PROCESSING_TIME_END",
	"PROCESSING_MODE",
	"DISPOSITION_MODE",
	"RECEIVING_GROUND_STATION",
	"RECEIVE_TIME_START",
	"RECEIVE_TIME_END",
	"ORBIT_START",
	"ORBIT_END",
	"ACTUAL_PRODUCT_SIZE",
	"STATE_VECTOR_TIME",
	"SEMI_MAJOR_AXIS",
	"ECCENTRICITY",
	"INCLINATION",
	"PERIGEE_ARGUMENT",
	"RIGHT_ASCENSION",
	"MEAN_ANOMALY",
	"X_POSITION",
	"Y_POSITION",
	"Z_POSITION",
	"X_VELOCITY",
	"Y_VELOCITY",
	"Z_VELOCITY",
	"EARTH_SUN_DISTANCE_RATIO",
	"LOCATION_TOLERANCE_RADIAL",
	"LOCATION_TOLERANCE_CROSSTRACK",
	"LOCATION_TOLERANCE_ALONGTRACK",
	"YAW_ERROR",
	"ROLL_ERROR",
	"PITCH_ERROR",
	"SUBSAT_LATITUDE_START",
	"SUBSAT_LONGITUDE_START",
	"SUBSAT_LATITUDE_END",
	"SUBSAT_LONGITUDE_END",
	"LEAP_SECOND",
	"LEAP_SECOND_UTC",
	"TOTAL_RECORDS",
	"TOTAL_MPHR",
	"TOTAL_SPHR",
	"TOTAL_IPR",
	"TOTAL_GEADR",
	"TOTAL_GIADR",
	"TOTAL_VEADR",
	"TOTAL_VIADR",
	"TOTAL_MDR",
	"COUNT_DEGRADED_INST_MDR",
	"COUNT_DEGRADED_PROC_MDR",
	"COUNT_DEGRADED_INST_MDR_BLOCKS",
	"COUNT_DEGRADED_PROC_MDR_BLOCKS",
	"DURATION_OF_PRODUCT",
	"MILLISECONDS_OF_DATA_PRESENT",
	"MILLISECONDS_OF_DATA_MISSING",
	"SUBSETTED_PRODUCT",
}

// MPHRFieldCount is the number of key=value lines in an MPHR
const MPHRFieldCount = len(mphrFieldNames)

// mphrTimeLayout is used by every UTC timestamp in the MPHR
const mphrTimeLayout = "20060102150405Z"

// MPHR Main Product Header Record (GPFS 5.1). Nullable fields are nil when the
// product fills them with 'x'.
type MPHR struct {
	ProductName             string
	ParentProductName1      string
	ParentProductName2      string
	ParentProductName3      string
	ParentProductName4      string
	InstrumentID            string
	InstrumentModel         string
	ProductType             string
	ProcessingLevel         string
	SpacecraftID            string
	SensingStart            string
	SensingEnd              string
	SensingStartTheoretical string
	SensingEndTheoretical   string
	ProcessingCentre        string
	ProcessorMajorVersion   *int64
	ProcessorMinorVersion   *int64
	FormatMajorVersion      *int64
	FormatMinorVersion      *int64
	ProcessingTimeStart     string
	ProcessingTimeEnd       string
	ProcessingMode          string
	DispositionMode         string
	ReceivingGroundStation  string
	ReceiveTimeStart        string
	ReceiveTimeEnd          string
	OrbitStart              int64
	OrbitEnd                int64
	ActualProductSize       int64

	// orbit state vector
	StateVectorTime string
	SemiMajorAxis   float64 // mm
	Eccentricity    float64
	Inclination     float64 // deg
	PerigeeArgument float64 // deg
	RightAscension  float64 // deg
	MeanAnomaly     float64 // deg
	XPosition       float64 // km
	YPosition       float64 // km
	ZPosition       float64 // km
	XVelocity       float64 // km/s
	YVelocity       float64 // km/s
	ZVelocity       float64 // km/s

	EarthSunDistanceRatio       float64
	LocationToleranceRadial     float64 // m
	LocationToleranceCrosstrack float64 // m
	LocationToleranceAlongtrack float64 // m
	YawError                    float64 // deg
	RollError                   float64 // deg
	PitchError                  float64 // deg
	SubsatLatitudeStart         *float64
	SubsatLongitudeStart        *float64
	SubsatLatitudeEnd           *float64
	SubsatLongitudeEnd          *float64
	LeapSecond                  int64
	LeapSecondUTC               string

	TotalRecords int64
	TotalMPHR    int64
	TotalSPHR    int64
	TotalIPR     int64
	TotalGEADR   int64
	TotalGIADR   int64
	TotalVEADR   int64
	TotalVIADR   int64
	TotalMDR     int64

	CountDegradedInstMDR       int64
	CountDegradedProcMDR       int64
	CountDegradedInstMDRBlocks int64
	CountDegradedProcMDRBlocks int64
	DurationOfProduct          int64 // ms
	MillisecondsOfDataPresent  *int64
	MillisecondsOfDataMissing  *int64
	SubsettedProduct           bool
}

// ParseMPHR decodes the ASCII content of an MPHR (everything after its GRH).
func ParseMPHR(content []byte) (*MPHR, error) {
	p := newMPHRParser(content)

	m := &MPHR{
		ProductName:             p.str(0),
		ParentProductName1:      p.str(1),
		ParentProductName2:      p.str(2),
		ParentProductName3:      p.str(3),
		ParentProductName4:      p.str(4),
		InstrumentID:            p.str(5),
		InstrumentModel:         p.str(6),
		ProductType:             p.str(7),
		ProcessingLevel:         p.str(8),
		SpacecraftID:            p.str(9),
		SensingStart:            p.str(10),
		SensingEnd:              p.str(11),
		SensingStartTheoretical: p.str(12),
		SensingEndTheoretical:   p.str(13),
		ProcessingCentre:        p.str(14),
		ProcessorMajorVersion:   p.optInt(15),
		ProcessorMinorVersion:   p.optInt(16),
		FormatMajorVersion:      p.optInt(17),
		FormatMinorVersion:      p.optInt(18),
		ProcessingTimeStart:     p.str(19),
		ProcessingTimeEnd:       p.str(20),
		ProcessingMode:          p.str(21),
		DispositionMode:         p.str(22),
		ReceivingGroundStation:  p.str(23),
		ReceiveTimeStart:        p.str(24),
		ReceiveTimeEnd:          p.str(25),
		OrbitStart:              p.integer(26),
		OrbitEnd:                p.integer(27),
		ActualProductSize:       p.integer(28),

		StateVectorTime: p.str(29),
		SemiMajorAxis:   p.float(30, 1),
		Eccentricity:    p.float(31, 1e6),
		Inclination:     p.float(32, 1e3),
		PerigeeArgument: p.float(33, 1e3),
		RightAscension:  p.float(34, 1e3),
		MeanAnomaly:     p.float(35, 1e3),
		XPosition:       p.float(36, 1e3),
		YPosition:       p.float(37, 1e3),
		ZPosition:       p.float(38, 1e3),
		XVelocity:       p.float(39, 1e3),
		YVelocity:       p.float(40, 1e3),
		ZVelocity:       p.float(41, 1e3),

		EarthSunDistanceRatio:       p.float(42, 1),
		LocationToleranceRadial:     p.float(43, 1),
		LocationToleranceCrosstrack: p.float(44, 1),
		LocationToleranceAlongtrack: p.float(45, 1),
		YawError:                    p.float(46, 1e3),
		RollError:                   p.float(47, 1e3),
		PitchError:                  p.float(48, 1e3),
		SubsatLatitudeStart:         p.optFloat(49, 1e3),
		SubsatLongitudeStart:        p.optFloat(50, 1e3),
		SubsatLatitudeEnd:           p.optFloat(51, 1e3),
		SubsatLongitudeEnd:          p.optFloat(52, 1e3),
		LeapSecond:                  p.integer(53),
		LeapSecondUTC:               p.str(54),

		TotalRecords: p.integer(55),
		TotalMPHR:    p.integer(56),
		TotalSPHR:    p.integer(57),
		TotalIPR:     p.integer(58),
		TotalGEADR:   p.integer(59),
		TotalGIADR:   p.integer(60),
		TotalVEADR:   p.integer(61),
		TotalVIADR:   p.integer(62),
		TotalMDR:     p.integer(63),

		CountDegradedInstMDR:       p.integer(64),
		CountDegradedProcMDR:       p.integer(65),
		CountDegradedInstMDRBlocks: p.integer(66),
		CountDegradedProcMDRBlocks: p.integer(67),
		DurationOfProduct:          p.integer(68),
		MillisecondsOfDataPresent:  p.optInt(69),
		MillisecondsOfDataMissing:  p.optInt(70),
		SubsettedProduct:           p.flag(71),
	}

	if p.err != nil {
		return nil, p.err
	}
	return m, nil
}

// SensingStartTime parses SensingStart.
func (m *MPHR) SensingStartTime() (time.Time, error) {
	return time.Parse(mphrTimeLayout, m.SensingStart)
}

// SensingEndTime parses SensingEnd.
func (m *MPHR) SensingEndTime() (time.Time, error) {
	return time.Parse(mphrTimeLayout, m.SensingEnd)
}

// mphrParser pulls typed values out of the MPHR lines. The first failure is
// kept and every later call becomes a no-op.
type mphrParser struct {
	lines []string
	err   error
}

func newMPHRParser(content []byte) *mphrParser {
	p := &mphrParser{}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p.lines = append(p.lines, line)
	}
	return p
}

func (p *mphrParser) fail(i int, value string, err error) {
	if p.err == nil {
		p.err = &FieldParseError{Field: mphrFieldNames[i], Value: value, Err: err}
	}
}

// value returns the text after the first '=' on line i.
func (p *mphrParser) value(i int) (string, bool) {
	if p.err != nil {
		return "", false
	}
	if i >= len(p.lines) {
		p.fail(i, "", ErrTruncatedInput)
		return "", false
	}
	line := p.lines[i]
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		p.fail(i, line, nil)
		return "", false
	}
	return strings.TrimSpace(line[idx+1:]), true
}

func (p *mphrParser) str(i int) string {
	v, _ := p.value(i)
	return v
}

func (p *mphrParser) integer(i int) int64 {
	v, ok := p.value(i)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(i, v, err)
		return 0
	}
	return n
}

func (p *mphrParser) float(i int, scale float64) float64 {
	v, ok := p.value(i)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(i, v, err)
		return 0
	}
	return f / scale
}

func (p *mphrParser) optInt(i int) *int64 {
	if v, ok := p.value(i); !ok || strings.Contains(v, "x") {
		return nil
	}
	n := p.integer(i)
	if p.err != nil {
		return nil
	}
	return &n
}

func (p *mphrParser) optFloat(i int, scale float64) *float64 {
	if v, ok := p.value(i); !ok || strings.Contains(v, "x") {
		return nil
	}
	f := p.float(i, scale)
	if p.err != nil {
		return nil
	}
	return &f
}

func (p *mphrParser) flag(i int) bool {
	v, ok := p.value(i)
	if !ok {
		return false
	}
	switch v {
	case "T", "1":
		return true
	case "F", "0":
		return false
	}
	if p.err == nil {
		p.err = &InvalidEnumValueError{Field: mphrFieldNames[i], Value: v}
	}
	return false
}
