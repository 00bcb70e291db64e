package l1c

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMPHR(t *testing.T) {
	t.Run("typed and scaled fields", func(t *testing.T) {
		content := mphrContent(map[string]string{
			"PRODUCT_NAME":            "IASI_xxx_1C_M01_20211001000000Z",
			"SPACECRAFT_ID":           "M01",
			"SENSING_START":           "20211001000000Z",
			"SENSING_END":             "20211001000259Z",
			"PROCESSOR_MAJOR_VERSION": "10",
			"ORBIT_START":             "47321",
			"SEMI_MAJOR_AXIS":         "7204538",
			"ECCENTRICITY":            "1161",
			"INCLINATION":             "98700",
			"SUBSAT_LATITUDE_START":   "-45000",
			"TOTAL_MDR":               "23",
			"SUBSETTED_PRODUCT":       "T",
		})

		m, err := ParseMPHR(content)
		require.NoError(t, err)

		assert.Equal(t, "IASI_xxx_1C_M01_20211001000000Z", m.ProductName)
		assert.Equal(t, "M01", m.SpacecraftID)
		require.NotNil(t, m.ProcessorMajorVersion)
		assert.Equal(t, int64(10), *m.ProcessorMajorVersion)
		assert.Equal(t, int64(47321), m.OrbitStart)
		assert.Equal(t, 7204538.0, m.SemiMajorAxis)
		assert.InDelta(t, 0.001161, m.Eccentricity, 1e-12)
		assert.InDelta(t, 98.7, m.Inclination, 1e-9)
		require.NotNil(t, m.SubsatLatitudeStart)
		assert.InDelta(t, -45.0, *m.SubsatLatitudeStart, 1e-9)
		assert.Equal(t, int64(23), m.TotalMDR)
		assert.True(t, m.SubsettedProduct)

		start, err := m.SensingStartTime()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2021, time.October, 1, 0, 0, 0, 0, time.UTC), start)
		end, err := m.SensingEndTime()
		require.NoError(t, err)
		assert.Equal(t, 179*time.Second, end.Sub(start))
	})

	t.Run("nullable fields", func(t *testing.T) {
		m, err := ParseMPHR(mphrContent(map[string]string{
			"PROCESSOR_MAJOR_VERSION":      "xx",
			"FORMAT_MINOR_VERSION":         "x",
			"SUBSAT_LONGITUDE_END":         "xxxxxxxxxxx",
			"MILLISECONDS_OF_DATA_MISSING": "xxxxxxxx",
		}))
		require.NoError(t, err)

		assert.Nil(t, m.ProcessorMajorVersion)
		assert.Nil(t, m.FormatMinorVersion)
		assert.Nil(t, m.SubsatLongitudeEnd)
		assert.Nil(t, m.MillisecondsOfDataMissing)
		require.NotNil(t, m.MillisecondsOfDataPresent)
		assert.Equal(t, int64(0), *m.MillisecondsOfDataPresent)
	})

	t.Run("subsetted product", func(t *testing.T) {
		for value, want := range map[string]bool{"T": true, "1": true, "F": false, "0": false} {
			m, err := ParseMPHR(mphrContent(map[string]string{"SUBSETTED_PRODUCT": value}))
			require.NoError(t, err, value)
			assert.Equal(t, want, m.SubsettedProduct, value)
		}

		_, err := ParseMPHR(mphrContent(map[string]string{"SUBSETTED_PRODUCT": "Y"}))
		require.ErrorIs(t, err, ErrInvalidEnumValue)
		var enumErr *InvalidEnumValueError
		require.ErrorAs(t, err, &enumErr)
		assert.Equal(t, "SUBSETTED_PRODUCT", enumErr.Field)
		assert.Equal(t, "Y", enumErr.Value)
	})

	t.Run("unparsable number names the field", func(t *testing.T) {
		_, err := ParseMPHR(mphrContent(map[string]string{"ORBIT_END": "abc"}))
		require.ErrorIs(t, err, ErrFieldParse)
		var fieldErr *FieldParseError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "ORBIT_END", fieldErr.Field)
		assert.Equal(t, "abc", fieldErr.Value)
	})

	t.Run("missing lines", func(t *testing.T) {
		lines := strings.Split(string(mphrContent(nil)), "\n")
		_, err := ParseMPHR([]byte(strings.Join(lines[:40], "\n")))
		require.ErrorIs(t, err, ErrFieldParse)
		assert.ErrorIs(t, err, ErrTruncatedInput)
		var fieldErr *FieldParseError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "Y_VELOCITY", fieldErr.Field)
	})

	t.Run("line without separator", func(t *testing.T) {
		lines := strings.Split(string(mphrContent(nil)), "\n")
		lines[3] = "PARENT_PRODUCT_NAME_3 x"
		_, err := ParseMPHR([]byte(strings.Join(lines, "\n")))
		var fieldErr *FieldParseError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "PARENT_PRODUCT_NAME_3", fieldErr.Field)
	})

	t.Run("blank lines are skipped", func(t *testing.T) {
		content := strings.ReplaceAll(string(mphrContent(map[string]string{"TOTAL_MDR": "7"})), "\n", "\n\n  \n")
		m, err := ParseMPHR([]byte(content))
		require.NoError(t, err)
		assert.Equal(t, int64(7), m.TotalMDR)
	})
}

func TestMPHRFieldCount(t *testing.T) {
	assert.Equal(t, 72, MPHRFieldCount)
	assert.Equal(t, "PRODUCT_NAME", mphrFieldNames[0])
	assert.Equal(t, "SUBSETTED_PRODUCT", mphrFieldNames[MPHRFieldCount-1])
}
