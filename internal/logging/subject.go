package logging

import "strings"

// shortRunIDLength keeps console headers readable; the full id stays in the
// JSON output and the results store.
const shortRunIDLength = 8

// FormatSubject builds the run/stage/video subject string used in console output.
func FormatSubject(runID, stage, videoID string) string {
	runID = strings.TrimSpace(runID)
	stage = strings.TrimSpace(stage)
	videoID = strings.TrimSpace(videoID)
	if len(runID) > shortRunIDLength {
		runID = runID[:shortRunIDLength]
	}
	parts := make([]string, 0, 3)
	switch {
	case runID != "" && stage != "":
		parts = append(parts, "Run "+runID+" ("+stage+")")
	case runID != "":
		parts = append(parts, "Run "+runID)
	case stage != "":
		parts = append(parts, stage)
	}
	if videoID != "" {
		parts = append(parts, "Video "+videoID)
	}
	return strings.Join(parts, " · ")
}
