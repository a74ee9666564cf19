package regs

const hexDigits = "0123456789abcdef"

// hex formats an address without pulling fmt into firmware builds.
func hex(v uintptr) string {
	var buf [2 + 16]byte
	i := len(buf)
	for {
		i--
		buf[i] = hexDigits[v&0xf]
		v >>= 4
		if v == 0 {
			break
		}
	}
	i--
	buf[i] = 'x'
	i--
	buf[i] = '0'
	return string(buf[i:])
}
