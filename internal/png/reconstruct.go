package png

import "github.com/tzneal/degulate/internal/errs"

// reconstruct undoes the per-scanline filter in filtered (spec §4.5),
// expands indexed/truecolor pixels to RGBA via palette as needed, and
// writes the result into output (exactly width*height*4 bytes).
func reconstruct(hdr Header, palette []byte, filtered []byte, output []byte) error {
	bpp := hdr.BytesPerPixel()
	stride := 1 + hdr.Width*bpp
	if len(filtered) != stride*hdr.Height {
		return errs.Newf(errs.OutputOverflow, "filtered stream is %d bytes, want %d", len(filtered), stride*hdr.Height)
	}

	// prev holds the previous scanline's reconstructed (unfiltered) bytes,
	// not including the filter-type byte, for filters 2-4. It starts
	// all-zero, matching "b=0 if i=0".
	prev := make([]byte, hdr.Width*bpp)
	cur := make([]byte, hdr.Width*bpp)

	for row := 0; row < hdr.Height; row++ {
		line := filtered[row*stride : (row+1)*stride]
		f := line[0]
		raw := line[1:]

		switch f {
		case 0:
			copy(cur, raw)
		case 1:
			for i, x := range raw {
				var a byte
				if i >= bpp {
					a = cur[i-bpp]
				}
				cur[i] = x + a
			}
		case 2:
			for i, x := range raw {
				cur[i] = x + prev[i]
			}
		case 3:
			for i, x := range raw {
				var a int
				if i >= bpp {
					a = int(cur[i-bpp])
				}
				b := int(prev[i])
				cur[i] = x + byte((a+b)/2)
			}
		case 4:
			for i, x := range raw {
				var a, c byte
				if i >= bpp {
					a = cur[i-bpp]
					c = prev[i-bpp]
				}
				b := prev[i]
				cur[i] = x + paeth(a, b, c)
			}
		default:
			return errs.Newf(errs.FilterCodeInvalid, "filter code %d out of range [0,4]", f)
		}

		if err := writeRow(hdr, palette, cur, output[row*hdr.Width*4:(row+1)*hdr.Width*4]); err != nil {
			return err
		}

		prev, cur = cur, prev
	}
	return nil
}

// paeth is the filter-type-4 predictor (spec §4.5): picks whichever of
// a, b, c is numerically closest to a+b-c, with ties broken in favor of
// a, then b.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// writeRow expands one reconstructed scanline (cur, bpp bytes per pixel)
// into dst, exactly width*4 RGBA bytes.
func writeRow(hdr Header, palette []byte, cur []byte, dst []byte) error {
	switch hdr.ColorType {
	case ColorTruecolorAlpha:
		copy(dst, cur)
		return nil
	case ColorTruecolor:
		for x := 0; x < hdr.Width; x++ {
			dst[x*4+0] = cur[x*3+0]
			dst[x*4+1] = cur[x*3+1]
			dst[x*4+2] = cur[x*3+2]
			dst[x*4+3] = 0xFF
		}
		return nil
	case ColorIndexed:
		for x := 0; x < hdr.Width; x++ {
			idx := int(cur[x])
			if (idx+1)*3 > len(palette) {
				return errs.Newf(errs.InvalidSymbol, "palette index %d out of range (palette has %d entries)", idx, len(palette)/3)
			}
			dst[x*4+0] = palette[idx*3+0]
			dst[x*4+1] = palette[idx*3+1]
			dst[x*4+2] = palette[idx*3+2]
			dst[x*4+3] = 0xFF
		}
		return nil
	default:
		return errs.Newf(errs.UnsupportedFormat, "color type %d unsupported", hdr.ColorType)
	}
}
