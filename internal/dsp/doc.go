// Package dsp provides the second-order filter sections and small
// signal generators used by the formant synthesizer. Every type here owns
// its state exclusively; instances must not be shared between renders.
package dsp
