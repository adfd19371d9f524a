// Package frames defines the per-frame observation record shared by every
// processing stage.
//
// A Frame carries the video/subject id pair, the frame counter, the playback
// timestamp, and five emotion readings. Id corruption is modelled as a single
// flag because the capture software always loses both ids together; emotion
// readings are corrupted independently and use the Missing reading instead.
package frames
