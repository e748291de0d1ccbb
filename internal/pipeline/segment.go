package pipeline

import "github.com/skypro1111/poxymeter/internal/protocol"

// Chunk is a candidate data frame cut from the stream
type Chunk struct {
	Index  int    // Position in the batch
	Offset int    // Position of the first byte in the stream
	Data   []byte // Aliases the stream
}

// Segment cuts stream into consecutive chunks of size bytes, assuming the capture holds
// nothing but data frames. A trailing chunk shorter than size is dropped.
func Segment(stream []byte, size int) []Chunk {
	if size <= 0 {
		return nil
	}

	chunks := make([]Chunk, 0, len(stream)/size)
	for off := 0; off+size <= len(stream); off += size {
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Offset: off,
			Data:   stream[off : off+size : off+size],
		})
	}
	return chunks
}

// FromFrames turns split frames into chunks. When commands are given, only frames whose
// leading byte matches one of them are kept. Frames of the wrong length are kept so that
// decoding reports them.
func FromFrames(frames []protocol.Frame, commands ...protocol.CommandCode) []Chunk {
	keep := make(map[protocol.CommandCode]bool, len(commands))
	for _, c := range commands {
		keep[c] = true
	}

	var chunks []Chunk
	for _, f := range frames {
		if len(keep) > 0 && !keep[f.Command()] {
			continue
		}
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Offset: f.Offset,
			Data:   f.Data,
		})
	}
	return chunks
}
