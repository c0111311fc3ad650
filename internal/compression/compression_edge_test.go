package compression

import (
	"testing"
)

// TestTypeStringAllValues tests String() for all encoding types
func TestTypeStringAllValues(t *testing.T) {
	testCases := []struct {
		ct   Type
		want string
	}{
		{Identity, "Identity"},
		{Snappy, "Snappy"},
		{Gzip, "Gzip"},
		{LZ4, "LZ4"},
		{Zstd, "Zstd"},
		{Type(255), "Unknown(255)"},
	}

	for _, tc := range testCases {
		got := tc.ct.String()
		if got != tc.want {
			t.Errorf("Type(%d).String() = %q, want %q", tc.ct, got, tc.want)
		}
	}
}

// TestCompressUnsupportedTypes tests Compress with an unrecognized type value
func TestCompressUnsupportedTypes(t *testing.T) {
	data := []byte("test data to compress")

	_, err := Compress(Type(250), data)
	if err == nil {
		t.Error("Compress with unrecognized type should return error")
	}
}

// TestDecompressUnsupportedTypes tests Decompress with an unrecognized type value
func TestDecompressUnsupportedTypes(t *testing.T) {
	data := []byte("some compressed data placeholder")

	_, err := Decompress(Type(250), data)
	if err == nil {
		t.Error("Decompress with unrecognized type should return error")
	}
}

// TestCompressEmptyData tests compression with empty data
func TestCompressEmptyData(t *testing.T) {
	supportedTypes := []Type{Identity, Snappy, Gzip, LZ4, Zstd}
	for _, ct := range supportedTypes {
		compressed, err := Compress(ct, []byte{})
		if err != nil {
			t.Errorf("Compress(%v) empty data failed: %v", ct, err)
			continue
		}

		decompressed, err := Decompress(ct, compressed)
		if err != nil {
			t.Errorf("Decompress(%v) empty data failed: %v", ct, err)
			continue
		}

		if len(decompressed) != 0 {
			t.Errorf("Decompress(%v) empty data returned %d bytes, want 0", ct, len(decompressed))
		}
	}
}

// TestCompressRoundTrip tests compression round-trip for all supported types
func TestCompressRoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog. " +
		"This sentence is repeated to increase compressibility. " +
		"The quick brown fox jumps over the lazy dog.")

	supportedTypes := []Type{Identity, Snappy, Gzip, LZ4, Zstd}
	for _, ct := range supportedTypes {
		compressed, err := Compress(ct, data)
		if err != nil {
			t.Errorf("Compress(%v) failed: %v", ct, err)
			continue
		}

		decompressed, err := Decompress(ct, compressed)
		if err != nil {
			t.Errorf("Decompress(%v) failed: %v", ct, err)
			continue
		}

		if string(decompressed) != string(data) {
			t.Errorf("Decompress(%v) mismatch: got %d bytes, want %d bytes", ct, len(decompressed), len(data))
		}
	}
}

// TestDecompressInvalidData tests decompression with corrupted data
func TestDecompressInvalidData(t *testing.T) {
	invalidData := []byte{0xFF, 0xFE, 0xFD, 0xFC, 0xFB}

	// Gzip and Zstd carry format magic bytes and must reject garbage.
	// LZ4's raw block format has no magic to check against, so it is
	// excluded here (see TestLZ4IncompressibleFallsBackToRaw instead).
	encodingTypes := []Type{Gzip, Zstd}
	for _, ct := range encodingTypes {
		_, err := Decompress(ct, invalidData)
		if err == nil {
			t.Errorf("Decompress(%v) with invalid data should fail", ct)
		}
	}
}

// TestNegotiateEdgeCases covers malformed or unusual Accept-Encoding input.
func TestNegotiateEdgeCases(t *testing.T) {
	tests := []struct {
		name           string
		acceptEncoding string
		want           Type
	}{
		{"only whitespace", "   ", Identity},
		{"trailing comma", "gzip,", Gzip},
		{"duplicate tokens", "gzip, gzip, zstd", Zstd},
		{"malformed q value ignored, defaults to accepted", "gzip;q=banana", Gzip},
		{"wildcard not specially handled", "*", Identity},
		{"case insensitive token", "GZIP", Gzip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Negotiate(tt.acceptEncoding); got != tt.want {
				t.Errorf("Negotiate(%q) = %s, want %s", tt.acceptEncoding, got, tt.want)
			}
		})
	}
}
