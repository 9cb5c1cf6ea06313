// Package audio previews WAV artifacts through the default output device
// using oto/v3. Recorded Ogg artifacts are not previewed.
package audio
