package audio

// frameReader is the part of an input stream needed to drop queued input.
type frameReader interface {
	AvailableToRead() (int, error)
	Read() error
}

// drainBacklog discards the whole frames a running input stream buffered
// while nobody was reading, typically the reply's own playback. Only what was
// queued on entry is read, so it returns even while the device keeps
// producing. Read errors accepted by ignore do not stop the drain.
func drainBacklog(r frameReader, frameSize int, ignore func(error) bool) (int, error) {
	if frameSize <= 0 {
		return 0, nil
	}

	available, err := r.AvailableToRead()
	if err != nil {
		return 0, err
	}

	frames := available / frameSize
	for i := 0; i < frames; i++ {
		if err := r.Read(); err != nil && (ignore == nil || !ignore(err)) {
			return i, err
		}
	}
	return frames, nil
}
