package protocol

// Chunk is one ordered slice of a payload's bytes. Seq starts at 1 and
// increments with no gaps; only the final chunk may be short.
type Chunk struct {
	Seq  uint32
	Data []byte
}

// Split cuts payload into transport-sized chunks. Concatenating every
// chunk's Data in Seq order reproduces payload exactly. An empty
// payload yields an empty slice; callers treat a zero-record schedule
// as a precondition failure well before this point.
func Split(payload Payload, chunkSize int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if len(payload) == 0 {
		return []Chunk{}, nil
	}

	count := (len(payload) + chunkSize - 1) / chunkSize
	chunks := make([]Chunk, 0, count)
	for off := 0; off < len(payload); off += chunkSize {
		end := off + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, Chunk{
			Seq:  uint32(len(chunks) + 1),
			Data: payload[off:end],
		})
	}
	return chunks, nil
}
