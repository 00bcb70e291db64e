package l1c

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadProduct(t *testing.T, product []byte, opts ...Option) (*File, error) {
	t.Helper()
	return NewFile(bytes.NewReader(product), int64(len(product)), opts...)
}

func TestNewFile(t *testing.T) {
	product := encodeProduct(t, MDRVersion5, 3)

	f, err := loadProduct(t, product)
	require.NoError(t, err)

	t.Run("records", func(t *testing.T) {
		assert.Equal(t, int64(len(product)), f.Size())
		require.Equal(t, 6, f.Len())

		total := 0
		var classes []RecordClass
		for _, rec := range f.Records() {
			total += rec.Size()
			classes = append(classes, rec.Class())
		}
		assert.Equal(t, len(product), total)
		assert.Equal(t, []RecordClass{ClassMPHR, ClassIPR, ClassGIADR, ClassMDR, ClassMDR, ClassMDR}, classes)
		assert.Len(t, f.RecordsOfClass(ClassMDR), 3)
		assert.Empty(t, f.RecordsOfClass(ClassVIADR))
	})

	t.Run("record bytes are preserved", func(t *testing.T) {
		offset := 0
		for _, rec := range f.Records() {
			raw, err := rec.Bytes()
			require.NoError(t, err)
			assert.Equal(t, product[offset:offset+rec.Size()], raw)
			offset += rec.Size()
		}
	})

	t.Run("index out of range", func(t *testing.T) {
		rec, err := f.Record(1)
		require.NoError(t, err)
		assert.Equal(t, ClassIPR, rec.Class())
		assert.False(t, rec.Interpreted())

		_, err = f.Record(6)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		_, err = f.Record(-1)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})

	t.Run("headers", func(t *testing.T) {
		mphr, err := f.MPHR()
		require.NoError(t, err)
		assert.Equal(t, "20211001000000Z", mphr.SensingStart)

		sf, err := f.GIADRScaleFactors()
		require.NoError(t, err)
		assert.Equal(t, int16(2), sf.IDefScaleSondScaleFactor[0])

		_, err = f.GIADRQuality()
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("MDRs are resolved on first access", func(t *testing.T) {
		fresh, err := loadProduct(t, product)
		require.NoError(t, err)

		mdrRecord, err := fresh.Record(3)
		require.NoError(t, err)
		assert.False(t, mdrRecord.Interpreted())

		mdrs, err := fresh.MDRs()
		require.NoError(t, err)
		require.Len(t, mdrs, 3)
		assert.True(t, mdrRecord.Interpreted())
		for i, m := range mdrs {
			assert.InDelta(t, float64(i+1), m.GS1cSpect[0][0][0], 1e-12)
			assert.Equal(t, 10, m.Channels())
		}

		// resolving again changes nothing
		require.NoError(t, fresh.ResolveMDRs())
		again, err := fresh.MDRs()
		require.NoError(t, err)
		for i := range mdrs {
			assert.Same(t, mdrs[i], again[i])
		}
	})

	t.Run("workers keep file order", func(t *testing.T) {
		parallel, err := loadProduct(t, product, WithWorkers(4), WithEagerMDRs())
		require.NoError(t, err)

		mdrRecord, err := parallel.Record(5)
		require.NoError(t, err)
		assert.True(t, mdrRecord.Interpreted())

		mdrs, err := parallel.MDRs()
		require.NoError(t, err)
		for i, m := range mdrs {
			assert.InDelta(t, float64(i+1), m.GS1cSpect[0][0][0], 1e-12)
		}
	})
}

func TestNewFileErrors(t *testing.T) {
	mphr := func() []byte { return encodeRecord(t, ClassMPHR, 0, 2, mphrContent(nil)) }
	scaleFactors := func() []byte {
		return encodeRecord(t, ClassGIADR, SubclassGIADRScaleFactors, 1, encodeBE(t, uniformScaleFactors(2)))
	}
	mdr := func() []byte {
		return encodeRecord(t, ClassMDR, 2, MDRVersion5, newMDRFixture(1, 2).encode(t, MDRVersion5))
	}
	concat := func(records ...[]byte) []byte {
		return bytes.Join(records, nil)
	}

	t.Run("size shorter than the records", func(t *testing.T) {
		product := concat(mphr(), scaleFactors())
		_, err := NewFile(bytes.NewReader(product), int64(len(product)-1))
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})

	t.Run("size longer than the records", func(t *testing.T) {
		product := concat(mphr(), scaleFactors())
		_, err := NewFile(bytes.NewReader(product), int64(len(product)+40))
		assert.ErrorIs(t, err, ErrTruncatedInput)
	})

	t.Run("truncated content", func(t *testing.T) {
		product := concat(mphr(), scaleFactors())
		_, err := NewFile(bytes.NewReader(product[:len(product)-5]), int64(len(product)))
		assert.ErrorIs(t, err, ErrTruncatedInput)
	})

	t.Run("record larger than the product", func(t *testing.T) {
		product := concat(mphr(), encodeRecord(t, ClassIPR, 0, 0, make([]byte, 16)))
		product[len(product)-36+4] = 0xff
		product[len(product)-36+5] = 0xff
		product[len(product)-36+6] = 0xff
		product[len(product)-36+7] = 0xf0

		_, err := loadProduct(t, product)
		require.ErrorIs(t, err, ErrSizeMismatch)
		var sizeErr *SizeMismatchError
		require.ErrorAs(t, err, &sizeErr)
		assert.Equal(t, 36, sizeErr.Declared)
		assert.Equal(t, 0xfffffff0, sizeErr.Consumed)
	})

	t.Run("unknown record class", func(t *testing.T) {
		bad := mphr()
		bad[0] = 12
		_, err := loadProduct(t, concat(scaleFactors(), bad))
		assert.ErrorIs(t, err, ErrUnknownRecordClass)
	})

	t.Run("bad MPHR aborts the load", func(t *testing.T) {
		bad := encodeRecord(t, ClassMPHR, 0, 2, mphrContent(map[string]string{"TOTAL_MDR": "many"}))
		_, err := loadProduct(t, bad)
		assert.ErrorIs(t, err, ErrFieldParse)
	})

	t.Run("missing scale factors", func(t *testing.T) {
		product := concat(mphr(), mdr())

		f, err := loadProduct(t, product)
		require.NoError(t, err)
		_, err = f.MDRs()
		assert.ErrorIs(t, err, ErrMissingDependency)

		_, err = loadProduct(t, product, WithEagerMDRs())
		assert.ErrorIs(t, err, ErrMissingDependency)
	})

	t.Run("several scale factor records", func(t *testing.T) {
		f, err := loadProduct(t, concat(mphr(), scaleFactors(), scaleFactors(), mdr()))
		require.NoError(t, err)
		_, err = f.MDRs()
		assert.ErrorIs(t, err, ErrAmbiguousDependency)
	})

	t.Run("failed MDR leaves records untouched", func(t *testing.T) {
		narrow := GIADRScaleFactors{IDefScaleSondNbScale: 1}
		narrow.IDefScaleSondNslast[0] = 1
		sf := encodeRecord(t, ClassGIADR, SubclassGIADRScaleFactors, 1, encodeBE(t, narrow))
		wide := encodeRecord(t, ClassMDR, 2, MDRVersion5, newMDRFixture(1, 5).encode(t, MDRVersion5))

		f, err := loadProduct(t, concat(sf, mdr(), wide))
		require.NoError(t, err)
		_, err = f.MDRs()
		require.ErrorIs(t, err, ErrScaleLookup)

		for _, rec := range f.RecordsOfClass(ClassMDR) {
			assert.False(t, rec.Interpreted())
		}
	})

	t.Run("no MDRs", func(t *testing.T) {
		f, err := loadProduct(t, concat(mphr(), scaleFactors()))
		require.NoError(t, err)
		mdrs, err := f.MDRs()
		require.NoError(t, err)
		assert.Empty(t, mdrs)
	})
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IASI_xxx_1C_M02.nat")
	product := encodeProduct(t, MDRVersion4, 2)
	require.NoError(t, os.WriteFile(path, product, 0644))

	f, err := Open(path, WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, int64(len(product)), f.Size())

	mdrs, err := f.MDRs()
	require.NoError(t, err)
	require.Len(t, mdrs, 2)
	_, ok := mdrs[0].V4()
	assert.True(t, ok)

	_, err = Open(filepath.Join(t.TempDir(), "missing.nat"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMinimalProduct(t *testing.T) {
	sf := GIADRScaleFactors{IDefScaleSondNbScale: 1}
	sf.IDefScaleSondNsfirst[0] = 1
	sf.IDefScaleSondNslast[0] = 100
	sf.IDefScaleSondScaleFactor[0] = 2

	mdr := newMDRFixture(1, 50)
	for i := 0; i < SS; i++ {
		mdr.setSample(7, 2, i, int16(i+1))
	}

	product := bytes.Join([][]byte{
		encodeRecord(t, ClassMPHR, 0, 2, mphrContent(nil)),
		encodeRecord(t, ClassGIADR, SubclassGIADRScaleFactors, 1, encodeBE(t, sf)),
		encodeRecord(t, ClassMDR, 2, MDRVersion5, mdr.encode(t, MDRVersion5)),
	}, nil)

	f, err := loadProduct(t, product)
	require.NoError(t, err)

	mdrs, err := f.MDRs()
	require.NoError(t, err)
	require.Len(t, mdrs, 1)

	spectrum := mdrs[0].GS1cSpect[7][2]
	require.Len(t, spectrum, 50)
	for i, v := range spectrum {
		assert.InDelta(t, float64(i+1)/100, v, 1e-12, "channel %d", i)
	}
}
