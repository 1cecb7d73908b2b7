// Package httpapi exposes the core services over a JSON HTTP API built on gin.
//
// Domain errors map to status codes in one place (respondError). A question
// asked against an empty knowledge base is not an error for HTTP clients:
// it answers 200 with noKnowledge set and the fallback text.
package httpapi
