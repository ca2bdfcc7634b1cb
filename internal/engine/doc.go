// Package engine defines the contract between the inference controller and a
// local model runtime, and ships two runtimes:
//
//   - server (default): spawns llama.cpp's llama-server for the model, or
//     attaches to a running one, and streams /v1/completions. Pure Go.
//   - llama: in-process go-llama.cpp. Enabled with `-tags=llama`; needs cgo
//     and libllama.so in ./bin (see llama_cgo.go). Without the tag a stub
//     reports the backend as unavailable.
//
// A Session yields a closed set of events (Token, EndOfSequence, Diagnostic)
// through iter.Seq2. The consumer's range loop is the feedback channel:
// breaking out halts the engine.
package engine
