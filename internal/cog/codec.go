package cog

// TIFF-compatible LZW decoder.
//
// TIFF's LZW variant differs from the GIF/PDF variant Go's compress/lzw
// implements: TIFF uses "early change" of the code width (the width grows
// one code before the table fills the current width, not when it is full),
// which makes compress/lzw report "invalid code" on TIFF streams.
// This follows the TIFF 6.0 specification directly.

import (
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
)

const (
	lzwMaxWidth  = 12
	lzwClearCode = 256
	lzwEOICode   = 257
	lzwFirstCode = 258
)

type lzwEntry struct {
	prefix int
	suffix byte
	length int
}

// decodeLZWInto decompresses TIFF-variant LZW data from src directly into
// dst, which must be exactly the expected decompressed size
// (tile_width*tile_height*sizeof(dtype), §4.H). It is a hard error if src
// is not fully consumed (trailing sub-byte padding excepted) or if dst is
// not filled exactly.
func decodeLZWInto(src []byte, dst []byte) error {
	d := &lzwDecoder{src: src}
	n, err := d.decode(dst)
	if err != nil {
		return err
	}
	if n != len(dst) {
		return rastererr.Format("cog.decodeLZWInto", "LZW produced %d bytes, want exactly %d", n, len(dst))
	}
	if consumed := (d.bitPos + 7) / 8; consumed < len(src) {
		return rastererr.Format("cog.decodeLZWInto", "LZW left %d of %d input bytes unconsumed", len(src)-consumed, len(src))
	}
	return nil
}

type lzwDecoder struct {
	src    []byte
	bitPos int
}

func (d *lzwDecoder) readBits(n int) (int, error) {
	if n <= 0 || n > 16 {
		return 0, rastererr.Runtimef("cog.lzwDecoder.readBits", "invalid bit count %d", n)
	}
	result := 0
	for i := 0; i < n; i++ {
		bytePos := d.bitPos / 8
		bitOff := 7 - (d.bitPos % 8)
		if bytePos >= len(d.src) {
			return 0, rastererr.Format("cog.lzwDecoder.readBits", "unexpected end of LZW input")
		}
		bit := (int(d.src[bytePos]) >> bitOff) & 1
		result = (result << 1) | bit
		d.bitPos++
	}
	return result, nil
}

// decode fills dst with decompressed bytes and returns the number written.
// Writing more than len(dst) is itself a format error: the caller knows
// the exact expected output size and a codec that overruns it is corrupt.
func (d *lzwDecoder) decode(dst []byte) (int, error) {
	table := make([]lzwEntry, 4097)
	for i := 0; i < 256; i++ {
		table[i] = lzwEntry{prefix: -1, suffix: byte(i), length: 1}
	}

	nextCode := lzwFirstCode
	codeWidth := 9
	written := 0
	var scratch []byte

	emit := func(b []byte) error {
		if written+len(b) > len(dst) {
			return rastererr.Format("cog.lzwDecoder.decode", "LZW output exceeds expected size %d", len(dst))
		}
		copy(dst[written:], b)
		written += len(b)
		return nil
	}

	getString := func(code int) []byte {
		entry := &table[code]
		scratch = scratch[:0]
		if cap(scratch) < entry.length {
			scratch = make([]byte, entry.length)
		} else {
			scratch = scratch[:entry.length]
		}
		idx := entry.length - 1
		for code >= 0 {
			e := &table[code]
			scratch[idx] = e.suffix
			idx--
			code = e.prefix
		}
		return scratch
	}

	code, err := d.readBits(codeWidth)
	if err != nil {
		return written, err
	}
	if code != lzwClearCode {
		return written, rastererr.Format("cog.lzwDecoder.decode", "first code is not clear code")
	}

	prevCode := -1
	for {
		code, err := d.readBits(codeWidth)
		if err != nil {
			// Running off the end without an EOI is tolerated only if the
			// output buffer is already exactly full.
			if written == len(dst) {
				return written, nil
			}
			return written, err
		}

		if code == lzwEOICode {
			return written, nil
		}
		if code == lzwClearCode {
			nextCode = lzwFirstCode
			codeWidth = 9
			prevCode = -1
			continue
		}

		if prevCode == -1 {
			if code >= 256 {
				return written, rastererr.Format("cog.lzwDecoder.decode", "first code after clear is not a literal")
			}
			if err := emit([]byte{byte(code)}); err != nil {
				return written, err
			}
			prevCode = code
			continue
		}

		var outStr []byte
		if code < nextCode {
			outStr = getString(code)
			if err := emit(outStr); err != nil {
				return written, err
			}
			if nextCode < 4097 {
				table[nextCode] = lzwEntry{prefix: prevCode, suffix: outStr[0], length: table[prevCode].length + 1}
				nextCode++
			}
		} else if code == nextCode {
			prevStr := getString(prevCode)
			firstByte := prevStr[0]
			if err := emit(prevStr); err != nil {
				return written, err
			}
			if err := emit([]byte{firstByte}); err != nil {
				return written, err
			}
			if nextCode < 4097 {
				table[nextCode] = lzwEntry{prefix: prevCode, suffix: firstByte, length: table[prevCode].length + 1}
				nextCode++
			}
		} else {
			return written, rastererr.Format("cog.lzwDecoder.decode", "invalid LZW code %d", code)
		}

		if nextCode+1 >= (1<<codeWidth) && codeWidth < lzwMaxWidth {
			codeWidth++
		}
		prevCode = code
	}
}
