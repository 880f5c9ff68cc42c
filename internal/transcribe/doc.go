// Package transcribe turns extracted speech audio into text.
//
// Transcriber is the narrow capability the montage pipeline depends on.
// GoogleClient implements it against the Cloud Speech-to-Text v1 REST
// endpoint using either a service-account key (OAuth2) or an API key.
// Requests are issued once; failures are returned to the caller unretried.
package transcribe
