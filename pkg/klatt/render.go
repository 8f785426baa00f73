package klatt

// Render renders seq in one shot. An empty sequence yields an empty buffer.
func Render(seq Sequence, voice VoiceConfig, opts ...Option) []float64 {
	e := NewEngine(seq, voice, opts...)
	out := make([]float64, e.Len())
	e.Process(out)
	return out
}

// Stream renders seq block by block and hands each block to fn. The last
// block may be shorter than size. The slice passed to fn is reused between
// calls. Stream stops early when fn returns false.
func Stream(seq Sequence, voice VoiceConfig, size int, fn func(block []float64) bool, opts ...Option) {
	if size <= 0 {
		size = 1024
	}
	e := NewEngine(seq, voice, opts...)
	remaining := e.Len()
	buf := make([]float64, size)
	for remaining > 0 {
		n := min(size, remaining)
		e.Process(buf[:n])
		remaining -= n
		if !fn(buf[:n]) {
			return
		}
	}
}

// Synthesize sequences symbols against table and renders them into a buffer
// padded with TailMarginMS of silence.
func Synthesize(symbols []string, table Table, voice VoiceConfig, opts ...Option) []float64 {
	seq := Build(symbols, table, voice)
	if len(seq) == 0 {
		return nil
	}
	e := NewEngine(seq, voice, opts...)
	out := make([]float64, e.PaddedLen())
	e.Process(out)
	return out
}
