package client

const (
	// API prefix
	apiPrefix = "/api"

	// Session endpoints
	endpointSessions        = apiPrefix + "/chat/sessions"             // GET, POST
	endpointSessionByID     = apiPrefix + "/chat/sessions/%s"          // DELETE
	endpointSessionMessages = apiPrefix + "/chat/sessions/%s/messages" // GET

	// Streaming chat endpoint
	endpointChatStream = apiPrefix + "/chat/stream" // POST, responds with SSE
)
