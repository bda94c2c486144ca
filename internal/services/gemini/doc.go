// Package gemini wraps the Gemini generateContent REST endpoint used to
// summarize transcripts.
//
// The API key is supplied per call and never stored on the client, so a
// single Client can serve every request the server receives. Invalid keys are
// reported as services.ErrUnauthorized; blocked prompts and empty candidates
// as services.ErrExternalTool. The client never retries.
package gemini
