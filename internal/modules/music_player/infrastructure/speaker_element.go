package infrastructure

import "time"

// speakerTick is how often the speaker element reports its position.
const speakerTick = 250 * time.Millisecond

// MediaDurationLookup measures catalog audio under mediaDir.
func MediaDurationLookup(mediaDir string) DurationLookup {
	return func(url string) (time.Duration, error) {
		path, err := MediaPath(mediaDir, url)
		if err != nil {
			return 0, err
		}
		return MeasureAudio(path)
	}
}
