package services

import (
	"bytes"
	"io"

	tcmp3 "github.com/tcolgate/mp3"
)

// MP3DurationSeconds walks the frames of an mp3 blob and sums their length.
// Used when a client uploads a file without reporting its duration.
func MP3DurationSeconds(data []byte) (float64, error) {
	var (
		dur     float64
		dec     = tcmp3.NewDecoder(bytes.NewReader(data))
		frame   tcmp3.Frame
		skipped int
	)

	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		dur += frame.Duration().Seconds()
	}

	return dur, nil
}
