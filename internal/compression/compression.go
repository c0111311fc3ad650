// Package compression provides the response body encodings used by the
// HTTP adapter's content negotiation: a caller sends Accept-Encoding,
// Negotiate picks a Type from the set this package supports, and
// Compress/Decompress apply it.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a response content encoding.
type Type uint8

const (
	// Identity sends the response body uncompressed.
	Identity Type = iota

	// Snappy uses the Google Snappy block format (not the Snappy
	// framing/stream format). Content-Encoding token: "sz"
	// (not an IANA-registered token, but used by a handful of Go HTTP
	// services; clients that don't advertise it never receive it).
	Snappy

	// Gzip uses the IANA "gzip" token, the most widely supported
	// encoding among HTTP clients.
	Gzip

	// LZ4 uses raw LZ4 block framing. Content-Encoding token: "lz4".
	LZ4

	// Zstd uses the IANA "zstd" token.
	Zstd
)

// Token returns the Content-Encoding header value for t.
func (t Type) Token() string {
	switch t {
	case Identity:
		return "identity"
	case Snappy:
		return "sz"
	case Gzip:
		return "gzip"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "identity"
	}
}

// String returns the human-readable name of the encoding.
func (t Type) String() string {
	switch t {
	case Identity:
		return "Identity"
	case Snappy:
		return "Snappy"
	case Gzip:
		return "Gzip"
	case LZ4:
		return "LZ4"
	case Zstd:
		return "Zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// preferenceOrder is the server's preference when a client's
// Accept-Encoding advertises more than one supported token, highest
// compression ratio for the typical lock/holder snapshot JSON first.
var preferenceOrder = []Type{Zstd, LZ4, Snappy, Gzip}

// Negotiate parses an Accept-Encoding header value and returns the
// most-preferred Type this package supports. It honors "q=0" as a
// rejection of that token and returns Identity if nothing acceptable
// is advertised, or if acceptEncoding is empty.
func Negotiate(acceptEncoding string) Type {
	if strings.TrimSpace(acceptEncoding) == "" {
		return Identity
	}

	accepted := make(map[string]bool)
	for _, part := range strings.Split(acceptEncoding, ",") {
		token, q := parseEncodingToken(part)
		if token == "" {
			continue
		}
		accepted[token] = q > 0
	}

	for _, t := range preferenceOrder {
		if ok, present := accepted[t.Token()]; present && ok {
			return t
		}
	}
	return Identity
}

// parseEncodingToken splits a single Accept-Encoding list element
// ("gzip", "gzip;q=0.8", " zstd ; q=0 ") into its lowercased token and
// quality value. A missing q defaults to 1.
func parseEncodingToken(part string) (token string, q float64) {
	q = 1
	fields := strings.Split(part, ";")
	token = strings.ToLower(strings.TrimSpace(fields[0]))
	for _, f := range fields[1:] {
		f = strings.TrimSpace(f)
		val, ok := strings.CutPrefix(f, "q=")
		if !ok {
			continue
		}
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			q = parsed
		}
	}
	return token, q
}

// Compress encodes data using the specified Type.
func Compress(t Type, data []byte) ([]byte, error) {
	switch t {
	case Identity:
		return data, nil

	case Snappy:
		return snappy.Encode(nil, data), nil

	case Gzip:
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
		if err != nil {
			return nil, fmt.Errorf("gzip writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
		return buf.Bytes(), nil

	case LZ4:
		return compressLZ4(data)

	case Zstd:
		return compressZstd(data)

	default:
		return nil, fmt.Errorf("unsupported encoding: %s", t)
	}
}

// compressLZ4 compresses data as a single raw LZ4 block (no LZ4 frame
// header) preceded by a one-byte marker: 1 for a compressed block, 0
// for data stored uncompressed. The decompressed size is not recorded;
// decompressLZ4 grows its output buffer until the block fits.
func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	var ht [1 << 16]int
	n, err := lz4.CompressBlock(data, dst, ht[:])
	if err != nil {
		return nil, fmt.Errorf("lz4 compress block: %w", err)
	}
	if n == 0 {
		// Incompressible input; fall back to storing it raw so the
		// decompressor (which always expects a compressed block) is
		// never handed data it can't invert. The marker byte lets
		// decompressLZ4 distinguish this from a real block.
		return append([]byte{0}, data...), nil
	}
	return append([]byte{1}, dst[:n]...), nil
}

// compressZstd compresses data using Zstandard at the default speed.
func compressZstd(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return encoder.EncodeAll(data, nil), nil
}

// Decompress decodes data previously produced by Compress with the
// same Type.
func Decompress(t Type, data []byte) ([]byte, error) {
	switch t {
	case Identity:
		return data, nil

	case Snappy:
		return snappy.Decode(nil, data)

	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer func() { _ = r.Close() }()
		return io.ReadAll(r)

	case LZ4:
		return decompressLZ4(data)

	case Zstd:
		return decompressZstd(data)

	default:
		return nil, fmt.Errorf("unsupported encoding: %s", t)
	}
}

// decompressLZ4 reverses compressLZ4's raw-block-with-marker framing.
func decompressLZ4(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("lz4 uncompress block: empty input")
	}
	marker, block := data[0], data[1:]
	if marker == 0 {
		out := make([]byte, len(block))
		copy(out, block)
		return out, nil
	}

	bufSize := max(len(block)*4, 256)
	for range 10 {
		dst := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(block, dst)
		if err == nil {
			return dst[:n], nil
		}
		bufSize *= 2
	}
	return nil, fmt.Errorf("lz4 uncompress block: buffer too small after retries")
}

// decompressZstd decompresses Zstandard data.
func decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, nil)
}
