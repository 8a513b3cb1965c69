// Package caption talks to the hosted multimodal model that describes images.
//
// The Service interface is what the upload panel depends on. Client is the
// production implementation: it sends the prepared image as a data URL to an
// OpenAI-compatible chat completions endpoint (the Gemini OpenAI endpoint by
// default) and reads speech from Microsoft Edge TTS.
//
// # Modes
//
// Captions are generated in one of three modes:
//   - creative: the default, an engaging description of the scene
//   - factual: a literal description grounded on detected text
//   - deep: a longer analysis grounded on detected text and the palette,
//     sent to the configured deep model
//
// # Errors
//
// Every failure is a *ServiceError carrying a Kind and a message that can be
// shown to the user. ExplainError asks the model to rephrase a failure and
// falls back to FallbackExplanation when that call fails too. Nothing is
// retried automatically.
//
// # Streaming
//
// Stream returns a *Stream that yields text chunks until io.EOF. A stream is
// consumed once; issue a new request to try again.
package caption
