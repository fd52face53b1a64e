package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"spectral/internal/dsp/oscillator"
	"spectral/internal/engine"
)

// RenderWAV decodes the mono PCM WAV file at inputPath, runs every
// sample through eng.ProcessChunk in engine.Config-sized chunks, and
// writes the resynthesized signal to outputPath at the same sample
// rate and bit depth as the input. The final chunk may be shorter than
// FFTSize; the ring buffer's own fill-and-wrap logic handles any chunk
// length, so no padding is needed.
func RenderWAV(inputPath, outputPath string, eng *engine.Engine) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("audio: open %s: %w", inputPath, err)
	}
	defer in.Close()

	decoder := wav.NewDecoder(in)
	if !decoder.IsValidFile() {
		return fmt.Errorf("audio: %s is not a valid WAV file", inputPath)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("audio: decode %s: %w", inputPath, err)
	}

	if err := eng.PrepareToPlay(float64(buf.Format.SampleRate)); err != nil {
		return fmt.Errorf("audio: prepare to play: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	samples := make([]oscillator.Sample, len(buf.Data))
	maxAmplitude := float32(int(1)<<(bitDepth-1)) - 1
	for i, v := range buf.Data {
		samples[i] = oscillator.Sample(v) / maxAmplitude
	}

	chunkSize := eng.Config().FFTSize
	for start := 0; start < len(samples); start += chunkSize {
		end := start + chunkSize
		if end > len(samples) {
			end = len(samples)
		}
		eng.ProcessChunk(samples[start:end])
	}

	return writeWAV(outputPath, samples, buf.Format.SampleRate, buf.Format.NumChannels, bitDepth, maxAmplitude)
}

func writeWAV(path string, samples []oscillator.Sample, sampleRate, numChannels, bitDepth int, maxAmplitude float32) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}
	defer out.Close()

	encoder := wav.NewEncoder(out, sampleRate, bitDepth, numChannels, 1)
	defer encoder.Close()

	intSamples := make([]int, len(samples))
	for i, s := range samples {
		intSamples[i] = int(s * maxAmplitude)
	}

	pcmBuf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:   intSamples,
	}
	if err := encoder.Write(pcmBuf); err != nil {
		return fmt.Errorf("audio: write %s: %w", path, err)
	}
	return nil
}
