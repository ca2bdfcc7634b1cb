// Package inference drives one generation request against an engine session
// and decides, per event, whether the engine continues or halts.
//
//   - controller.go: Controller state machine (idle → generating → halted |
//     exhausted | failed), token accumulation and the token sink.
//   - runner.go: Runner loads the model, assembles the prompt and runs one
//     Controller.
//   - errors.go: ModelLoadError, InferenceError and ConfigurationError with
//     IsXxx helpers.
//   - metrics.go: Prometheus publisher fed from lifecycle events.
//
// A Controller is single-use. Concurrent queries need independent sessions
// and controllers.
package inference
