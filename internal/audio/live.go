package audio

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"spectral/internal/engine"
	speclog "spectral/internal/log"
)

// LiveOptions configures a LiveRunner's duplex stream.
type LiveOptions struct {
	DeviceID        int
	Channels        int
	FramesPerBuffer int
	LowLatency      bool
}

// LiveRunner drives an *engine.Engine from a live duplex PortAudio
// stream: it copies each callback's input buffer into the output
// buffer and lets the engine replace it in place, so what gets
// written back out is the resynthesized signal, not the input.
type LiveRunner struct {
	eng      *engine.Engine
	device   *portaudio.DeviceInfo
	stream   *portaudio.Stream
	channels int
	frames   int

	isRecording int32 // atomic flag; set only by StartRecording/StopRecording
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	recordBuf   *goaudio.IntBuffer
}

// NewLiveRunner opens (but does not start) a duplex stream against
// opts.DeviceID, wired to eng.ProcessChunk on every callback.
func NewLiveRunner(eng *engine.Engine, opts LiveOptions) (*LiveRunner, error) {
	device, err := InputDevice(opts.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("audio: live runner: %w", err)
	}

	latency := device.DefaultHighInputLatency
	if opts.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	lr := &LiveRunner{eng: eng, device: device, channels: opts.Channels, frames: opts.FramesPerBuffer}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: opts.Channels,
			Device:   device,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: opts.Channels,
			Device:   device,
			Latency:  latency,
		},
		FramesPerBuffer: opts.FramesPerBuffer,
		SampleRate:      device.DefaultSampleRate,
	}

	if err := eng.PrepareToPlay(device.DefaultSampleRate); err != nil {
		return nil, fmt.Errorf("audio: live runner: %w", err)
	}

	stream, err := portaudio.OpenStream(params, lr.callback)
	if err != nil {
		return nil, fmt.Errorf("audio: live runner: open stream: %w", err)
	}
	lr.stream = stream
	return lr, nil
}

// Start starts the duplex stream. The callback runs on a dedicated
// PortAudio thread; the engine's own audio-thread contract (no
// allocation, no blocking) is what keeps it safe there.
func (lr *LiveRunner) Start() error {
	if err := lr.stream.Start(); err != nil {
		return fmt.Errorf("audio: live runner: start: %w", err)
	}
	return nil
}

// Stop stops and closes the stream.
func (lr *LiveRunner) Stop() error {
	if err := lr.stream.Stop(); err != nil {
		return fmt.Errorf("audio: live runner: stop: %w", err)
	}
	if err := lr.stream.Close(); err != nil {
		return fmt.Errorf("audio: live runner: close: %w", err)
	}
	return nil
}

// callback is the audio thread. in and out alias the same PortAudio
// ring slots per channel; the engine replaces in place, so copying in
// into out before processing keeps the contract explicit without
// relying on that aliasing. When recording is active it also appends
// the resynthesized buffer to the WAV encoder, matching the
// reference engine's own record-while-streaming approach.
func (lr *LiveRunner) callback(in, out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(out, in)
	lr.eng.ProcessChunk(out)

	if atomic.LoadInt32(&lr.isRecording) == 1 && lr.wavEncoder != nil {
		for i, s := range out {
			lr.recordBuf.Data[i] = int(s * 2147483647)
		}
		lr.recordBuf.Data = lr.recordBuf.Data[:len(out)]
		if err := lr.wavEncoder.Write(lr.recordBuf); err != nil {
			speclog.Errorf("audio: live runner: write recording: %v", err)
		}
	}
}

// StartRecording opens filename and begins appending every processed
// callback buffer to it as 32-bit PCM, until StopRecording is called.
func (lr *LiveRunner) StartRecording(filename string) error {
	if atomic.LoadInt32(&lr.isRecording) == 1 {
		return fmt.Errorf("audio: live runner: already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("audio: live runner: create %s: %w", filename, err)
	}
	lr.outputFile = file
	lr.wavEncoder = wav.NewEncoder(file, int(lr.device.DefaultSampleRate), 32, lr.channels, 1)
	lr.recordBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: lr.channels, SampleRate: int(lr.device.DefaultSampleRate)},
		Data:   make([]int, lr.frames*lr.channels),
	}

	atomic.StoreInt32(&lr.isRecording, 1)
	return nil
}

// StopRecording flushes and closes the WAV file started by
// StartRecording. A no-op if recording was never started.
func (lr *LiveRunner) StopRecording() error {
	if atomic.LoadInt32(&lr.isRecording) == 0 {
		return nil
	}
	atomic.StoreInt32(&lr.isRecording, 0)

	if lr.wavEncoder != nil {
		if err := lr.wavEncoder.Close(); err != nil {
			return fmt.Errorf("audio: live runner: close encoder: %w", err)
		}
		lr.wavEncoder = nil
	}
	if lr.outputFile != nil {
		if err := lr.outputFile.Close(); err != nil {
			return fmt.Errorf("audio: live runner: close file: %w", err)
		}
		lr.outputFile = nil
	}
	return nil
}
