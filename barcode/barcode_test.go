package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

func TestParseSymbology(t *testing.T) {
	testCases := []struct {
		token string
		want  Symbology
	}{
		{"EAN8", EAN8},
		{"ean8", EAN8},
		{"EAN-13", EAN13},
		{"JAN13", EAN13},
		{"UPC-A", UPCA},
		{"upc_e", UPCE},
		{"CODE39", Code39},
		{"ITF", ITF},
		{"NW7", Codabar},
		{"CODE93", Code93},
		{"code128", Code128},
	}

	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			got, err := ParseSymbology(tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseSymbology("PDF417")
	assert.ErrorIs(t, err, printerr.ErrUnsupportedSymbology)
}

func TestFunctionCodes(t *testing.T) {
	assert.Equal(t, byte(65), UPCA.Function())
	assert.Equal(t, byte(67), EAN13.Function())
	assert.Equal(t, byte(68), EAN8.Function())
	assert.Equal(t, byte(69), Code39.Function())
	assert.Equal(t, byte(73), Code128.Function())
}

func TestCheckDigit(t *testing.T) {
	assert.Equal(t, byte('0'), CheckDigit("1234567"))
	assert.Equal(t, byte('4'), CheckDigit("9638507"))
	assert.Equal(t, byte('1'), CheckDigit("400638133393"))
	assert.Equal(t, byte('2'), CheckDigit("03600029145"))
}

func TestEAN8(t *testing.T) {
	t.Run("AppendsCheckDigit", func(t *testing.T) {
		p, err := Encode(EAN8, "1234567")
		require.NoError(t, err)
		assert.Equal(t, "12345670", string(p.Data))
	})

	t.Run("VerifiesCheckDigit", func(t *testing.T) {
		p, err := Encode(EAN8, "96385074")
		require.NoError(t, err)
		assert.Equal(t, "96385074", string(p.Data))
	})

	t.Run("WrongCheckDigit", func(t *testing.T) {
		_, err := Encode(EAN8, "12345678")
		assert.ErrorIs(t, err, printerr.ErrBarcodeChecksum)
	})

	t.Run("WrongLength", func(t *testing.T) {
		_, err := Encode(EAN8, "123456")
		assert.ErrorIs(t, err, printerr.ErrBarcodeData)
	})

	t.Run("NonNumeric", func(t *testing.T) {
		_, err := Encode(EAN8, "12A4567")
		assert.ErrorIs(t, err, printerr.ErrBarcodeData)
	})
}

func TestEAN13AndUPCA(t *testing.T) {
	p, err := Encode(EAN13, "400638133393")
	require.NoError(t, err)
	assert.Equal(t, "4006381333931", string(p.Data))

	_, err = Encode(EAN13, "4006381333932")
	assert.ErrorIs(t, err, printerr.ErrBarcodeChecksum)

	p, err = Encode(UPCA, "036000291452")
	require.NoError(t, err)
	assert.Equal(t, "036000291452", string(p.Data))
}

func TestUPCE(t *testing.T) {
	assert.Equal(t, "01234500006", ExpandUPCE("0123456"))
	assert.Equal(t, "01230000045", ExpandUPCE("0123453"))

	p, err := Encode(UPCE, "123456")
	require.NoError(t, err)
	assert.Equal(t, "01234565", string(p.Data))

	_, err = Encode(UPCE, "01234564")
	assert.ErrorIs(t, err, printerr.ErrBarcodeChecksum)

	_, err = Encode(UPCE, "2123456")
	assert.ErrorIs(t, err, printerr.ErrBarcodeData)
}

func TestCode39(t *testing.T) {
	_, err := Encode(Code39, "ABC-123")
	assert.NoError(t, err)

	_, err = Encode(Code39, "*ABC*")
	assert.NoError(t, err)

	_, err = Encode(Code39, "abc")
	assert.ErrorIs(t, err, printerr.ErrBarcodeData)

	_, err = Encode(Code39, "*ABC")
	assert.ErrorIs(t, err, printerr.ErrBarcodeData)
}

func TestITFAndCodabar(t *testing.T) {
	_, err := Encode(ITF, "1234")
	assert.NoError(t, err)

	_, err = Encode(ITF, "123")
	assert.ErrorIs(t, err, printerr.ErrBarcodeData)

	_, err = Encode(Codabar, "A40156B")
	assert.NoError(t, err)

	_, err = Encode(Codabar, "40156")
	assert.ErrorIs(t, err, printerr.ErrBarcodeData)
}

func TestCode128(t *testing.T) {
	t.Run("NumericUsesSetC", func(t *testing.T) {
		p, err := Encode(Code128, "123456")
		require.NoError(t, err)
		assert.Equal(t, []byte{'{', 'C', 12, 34, 56}, p.Data)
	})

	t.Run("TextUsesSetB", func(t *testing.T) {
		p, err := Encode(Code128, "No.{1}")
		require.NoError(t, err)
		assert.Equal(t, "{BNo.{{1}", string(p.Data))
	})

	t.Run("ExplicitSetPassesThrough", func(t *testing.T) {
		p, err := Encode(Code128, "{Aabc")
		require.NoError(t, err)
		assert.Equal(t, "{Aabc", string(p.Data))
	})

	t.Run("ControlByteRejected", func(t *testing.T) {
		_, err := Encode(Code128, "a\tb")
		assert.ErrorIs(t, err, printerr.ErrBarcodeData)
	})
}

func TestPayloadBytes(t *testing.T) {
	p, err := Encode(EAN8, "1234567")
	require.NoError(t, err)
	assert.Equal(t, append([]byte{68, 8}, "12345670"...), p.Bytes())
}

func TestPayloadLengthLimit(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'A'
	}
	_, err := Encode(Code93, string(long))
	assert.ErrorIs(t, err, printerr.ErrBarcodeData)
}

func TestParseHRI(t *testing.T) {
	pos, err := ParseHRIPosition("")
	require.NoError(t, err)
	assert.Equal(t, HRIBelow, pos)

	pos, err = ParseHRIPosition("BTH")
	require.NoError(t, err)
	assert.Equal(t, HRIBoth, pos)

	_, err = ParseHRIPosition("left")
	assert.ErrorIs(t, err, printerr.ErrArgumentType)

	font, err := ParseHRIFont("b")
	require.NoError(t, err)
	assert.Equal(t, HRIFontB, font)
}
