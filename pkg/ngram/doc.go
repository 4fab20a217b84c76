// Package ngram accumulates sliding-window byte n-grams into a dense
// occupancy histogram.
//
// # Overview
//
// A window of width 2 (pairs) or 3 (triples) slides across the input one byte
// at a time. Each window is read as a coordinate, with the byte at window
// position j becoming the value of dimension j, and the counter at that
// coordinate is incremented. The result is a [Histogram] of 256^d cells whose
// shape reveals the byte-level structure of the input: text clusters in the
// printable ASCII block, padding lights up the origin, compressed data fills
// the whole plane uniformly.
//
//	data, _ := os.ReadFile("firmware.bin")
//	h, err := ngram.Build(data, ngram.Dims2)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(h.Count(ngram.Coord{X: 0, Y: 0})) // how often "\x00\x00" occurs
//
// # Storage
//
// Cells live in one flat []uint32 addressed by index = x + 256*y + 65536*z.
// The buffer is filled by [Build] (or by a [Builder] for streamed input) and
// never written again once the histogram is handed out, so a histogram can be
// shared freely between readers without synchronization. [Histogram.Cells]
// exposes the buffer for sweeps that visit every cell.
//
// # Degenerate input
//
// Input shorter than the window produces zero windows and an all-zero
// histogram. [Build] treats that as a valid empty visualization; [BuildStrict]
// reports it as [ErrEmptyInput] for callers that prefer to fail.
package ngram
