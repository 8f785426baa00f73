// Package audio plays rendered speech on the default output device using
// oto/v3.
package audio
