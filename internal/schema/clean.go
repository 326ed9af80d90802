package schema

// controlMax is the highest byte value stripped by Clean. Gateways pad
// frames with bytes in 0x00-0x19; 0x1A-0x1F are left alone.
const controlMax = 0x19

// Clean removes control bytes 0x00-0x19 from raw. The input is never
// modified; when nothing needs stripping raw itself is returned.
func Clean(raw []byte) []byte {
	i := 0
	for ; i < len(raw); i++ {
		if raw[i] <= controlMax {
			break
		}
	}
	if i == len(raw) {
		return raw
	}

	out := make([]byte, i, len(raw))
	copy(out, raw[:i])
	for _, b := range raw[i:] {
		if b > controlMax {
			out = append(out, b)
		}
	}
	return out
}
