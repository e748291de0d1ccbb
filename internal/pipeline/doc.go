// Package pipeline connects the splitter and the delta decoder for whole captures.
// It cuts a stream into fixed-size chunks, decodes them on a bounded set of workers,
// and keeps per-frame failures local to the frame they occurred in.
package pipeline
