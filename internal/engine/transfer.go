package engine

// checksumSize is the length of the trailer stored after every record.
const checksumSize = 1

// WriteWithChecksum copies src into the mirror at dst, stores the rolling
// checksum in the byte after it and flushes the whole page.
//
// The range is checked before anything is written. A flush error is returned,
// but the mirror keeps the new record either way.
func (e *Engine) WriteWithChecksum(dst int, src []byte) error {
	if err := e.mirror.CheckRange(dst, len(src)+checksumSize); err != nil {
		return err
	}

	var sum byte
	for i, b := range src {
		sum = e.cfg.Checksum.Update(sum, b)
		if err := e.PutByte(dst+i, b); err != nil {
			return err
		}
	}
	if err := e.PutByte(dst+len(src), sum); err != nil {
		return err
	}

	return e.Flush()
}

// ReadWithChecksum fills dst from the mirror starting at src and reports
// whether the stored checksum matches. A false result means the record was
// never written, was corrupted, or the mirror was reset on a version change.
func (e *Engine) ReadWithChecksum(dst []byte, src int) (bool, error) {
	if err := e.mirror.CheckRange(src, len(dst)+checksumSize); err != nil {
		return false, err
	}

	var sum byte
	for i := range dst {
		b, err := e.GetByte(src + i)
		if err != nil {
			return false, err
		}
		sum = e.cfg.Checksum.Update(sum, b)
		dst[i] = b
	}

	stored, err := e.GetByte(src + len(dst))
	if err != nil {
		return false, err
	}
	return stored == sum, nil
}
