package main

import (
	"sync"
	"time"

	"KeyPacer/app"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
)

const sampleRate = beep.SampleRate(44100)

// toneCue plays a short sine tone through the default audio device.
type toneCue struct {
	freq float64
	dur  time.Duration
	log  *zap.Logger

	speakerLock sync.Mutex
}

// newToneCue initializes the speaker. It returns nil when audio is unavailable.
func newToneCue(freqHz int, dur time.Duration, log *zap.Logger) app.Cue {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		log.Warn("Audio disabled: failed to initialize speaker", zap.Error(err))
		return nil
	}
	return &toneCue{freq: float64(freqHz), dur: dur, log: log}
}

func (c *toneCue) Play() {
	tone, err := generators.SineTone(sampleRate, c.freq)
	if err != nil {
		c.log.Warn("Cue tone unavailable", zap.Error(err))
		return
	}

	c.speakerLock.Lock()
	defer c.speakerLock.Unlock()
	speaker.Play(beep.Take(sampleRate.N(c.dur), tone))
}
