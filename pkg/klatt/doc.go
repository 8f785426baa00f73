// Package klatt implements a cascade-parallel formant synthesizer.
//
// A phoneme symbol stream is turned into a Sequence of acoustic target
// frames by Build, and a Sequence is rendered sample by sample by an Engine.
// Engines can be driven in one shot (Render) or block by block (Process);
// both produce the same samples for the same input.
//
// Each Engine owns its filters and glottal source. Engines are not safe for
// concurrent use, but any number of engines may run in parallel.
package klatt
