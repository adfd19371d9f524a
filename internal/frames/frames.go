package frames

import "strconv"

// DefaultSentinel is the marker the capture software writes when a value could
// not be recorded.
const DefaultSentinel = "No value"

// NumEmotions is the number of emotion readings carried by each frame.
const NumEmotions = 5

// Emotion column indexes into Frame.Emotions.
const (
	Positive1 = iota
	Positive2
	Negative1
	Negative2
	Negative3
)

// positiveCount is the number of leading emotion columns that are positive.
const positiveCount = 2

// Columns lists the canonical CSV header in on-disk order.
var Columns = []string{
	"video_id",
	"subject_id",
	"frame_no",
	"millisecond_from_start",
	"positive_1",
	"positive_2",
	"negative_1",
	"negative_2",
	"negative_3",
}

// EmotionNames maps Frame.Emotions indexes to column names.
var EmotionNames = [NumEmotions]string{"positive_1", "positive_2", "negative_1", "negative_2", "negative_3"}

// Reading is a single emotion-detector output.
type Reading int8

const (
	Absent  Reading = 0
	Present Reading = 1
	Missing Reading = -1
)

// Valid reports whether the reading carries a real value.
func (r Reading) Valid() bool {
	return r == Absent || r == Present
}

// String renders the reading as stored in the source files.
func (r Reading) String() string {
	switch r {
	case Present:
		return "1"
	case Absent:
		return "0"
	default:
		return DefaultSentinel
	}
}

// Frame is one observation of one subject at one video frame.
//
// VideoID and SubjectID are corrupted together; IDCorrupted is the single
// source of truth and the numeric ids are meaningless while it is set.
type Frame struct {
	VideoID              int
	SubjectID            int
	IDCorrupted          bool
	FrameNo              int
	MillisecondFromStart int
	Emotions             [NumEmotions]Reading
}

// SubjectKey identifies one viewing session.
type SubjectKey struct {
	VideoID   int
	SubjectID int
}

// Key returns the session key of a frame with valid ids.
func (f Frame) Key() SubjectKey {
	return SubjectKey{VideoID: f.VideoID, SubjectID: f.SubjectID}
}

// SetIDs assigns a valid id pair.
func (f *Frame) SetIDs(videoID, subjectID int) {
	f.VideoID = videoID
	f.SubjectID = subjectID
	f.IDCorrupted = false
}

// CorruptIDs resets the id pair to the corrupted state.
func (f *Frame) CorruptIDs() {
	f.VideoID = 0
	f.SubjectID = 0
	f.IDCorrupted = true
}

// EmotionMissing reports whether any emotion reading is corrupted.
func (f Frame) EmotionMissing() bool {
	for _, r := range f.Emotions {
		if !r.Valid() {
			return true
		}
	}
	return false
}

// PositiveCount is the number of positive emotions present.
func (f Frame) PositiveCount() int {
	return countPresent(f.Emotions[:positiveCount])
}

// NegativeCount is the number of negative emotions present.
func (f Frame) NegativeCount() int {
	return countPresent(f.Emotions[positiveCount:])
}

// EmotionCount is the number of emotions present.
func (f Frame) EmotionCount() int {
	return countPresent(f.Emotions[:])
}

func countPresent(readings []Reading) int {
	n := 0
	for _, r := range readings {
		if r == Present {
			n++
		}
	}
	return n
}

// IDString renders an id cell, restoring the sentinel for corrupted ids.
func (f Frame) IDString(id int, sentinel string) string {
	if f.IDCorrupted {
		return sentinel
	}
	return strconv.Itoa(id)
}

// Record renders the frame as a CSV row in Columns order.
func (f Frame) Record(sentinel string) []string {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	row := make([]string, 0, len(Columns))
	row = append(row,
		f.IDString(f.VideoID, sentinel),
		f.IDString(f.SubjectID, sentinel),
		strconv.Itoa(f.FrameNo),
		strconv.Itoa(f.MillisecondFromStart),
	)
	for _, r := range f.Emotions {
		if r.Valid() {
			row = append(row, r.String())
		} else {
			row = append(row, sentinel)
		}
	}
	return row
}

// Clone returns an independent copy of the slice.
func Clone(src []Frame) []Frame {
	if src == nil {
		return nil
	}
	out := make([]Frame, len(src))
	copy(out, src)
	return out
}

// CountCorrupted returns how many frames carry corrupted ids.
func CountCorrupted(src []Frame) int {
	n := 0
	for _, f := range src {
		if f.IDCorrupted {
			n++
		}
	}
	return n
}
