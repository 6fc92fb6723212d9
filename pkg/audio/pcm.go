package audio

// Resample converts audio from one sample rate to another using linear
// interpolation. Adequate for speech.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	n := int(float64(len(samples)) / ratio)
	out := make([]int16, n)

	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		s1 := float64(samples[idx])
		s2 := float64(samples[idx+1])
		out[i] = int16(s1 + frac*(s2-s1))
	}

	return out
}

// BytesToSamples converts PCM16 little-endian bytes to samples. A trailing
// odd byte is dropped.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// SamplesToBytes converts samples to PCM16 little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}

// Frames splits samples into frames of size, zero padding the last one.
func Frames(samples []int16, size int) [][]int16 {
	if size <= 0 || len(samples) == 0 {
		return nil
	}
	frames := make([][]int16, 0, (len(samples)+size-1)/size)
	for off := 0; off < len(samples); off += size {
		end := off + size
		if end <= len(samples) {
			frames = append(frames, samples[off:end])
			continue
		}
		last := make([]int16, size)
		copy(last, samples[off:])
		frames = append(frames, last)
	}
	return frames
}
