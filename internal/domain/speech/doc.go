// Package speech drives the avatar's spoken output.
//
// The sequencer is a single-consumer FIFO queue: any number of producers
// may enqueue concurrently, but utterances play strictly one at a time in
// enqueue order. Synthesis delegates to the external speech service; when
// the service is unavailable the sequencer simulates the utterance
// duration instead so the avatar's timing stays believable.
package speech
