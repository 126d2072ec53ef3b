// Package speech reads out completed split times. The coordinator hands it
// a millisecond split; everything from phrase formatting to process spawn is
// fire-and-forget and can never slow the timing pipeline down.
package speech

import (
	"fmt"
	"log"
	"os"
	"os/exec"
)

const espeakPath = "/usr/bin/espeak-ng"

// Phrase renders a split for reading aloud, to centisecond precision:
// 3184 ms becomes "3 point 1 8".
func Phrase(ms float64) string {
	seconds := ms / 1000.0
	whole := int(seconds)
	cents := int((seconds - float64(whole)) * 100)
	return fmt.Sprintf("%d point %d %d", whole, cents/10, cents%10)
}

// Speaker launches an external TTS command per announcement: the configured
// script when present, espeak-ng otherwise.
type Speaker struct {
	enabled bool
	command string
	say     func(phrase string)
}

func NewSpeaker(enabled bool, command string) *Speaker {
	s := &Speaker{enabled: enabled, command: command}
	s.say = s.speak
	return s
}

// AnnounceSplit implements the coordinator's Announcer.
func (s *Speaker) AnnounceSplit(ms float64) {
	if !s.enabled || ms <= 0 {
		return
	}
	phrase := Phrase(ms)
	log.Printf("speech: %q", phrase)
	go s.say(phrase)
}

func (s *Speaker) speak(phrase string) {
	var cmd *exec.Cmd
	if _, err := os.Stat(s.command); err == nil {
		cmd = exec.Command(s.command, phrase)
	} else {
		cmd = exec.Command(espeakPath, "-v", "en", "-s", "150", phrase)
	}

	if err := cmd.Start(); err != nil {
		log.Printf("speech: tts unavailable: %v", err)
		return
	}
	// Reap the child; announcement outcome is irrelevant to the pipeline.
	_ = cmd.Wait()
}
