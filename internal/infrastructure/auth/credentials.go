package auth

import (
	"net/http"
	"strings"
)

// BearerSubprotocol is the websocket subprotocol under which browser clients
// smuggle their token, since they cannot set an Authorization header on the
// upgrade request. The client offers "bearer, <token>" and the server echoes
// "bearer" back during negotiation.
const BearerSubprotocol = "bearer"

// ExtractToken pulls the raw credential from an upgrade/handshake request.
// Priority order, first match wins:
//  1. Authorization: Bearer <token> header
//  2. token carried in the Sec-WebSocket-Protocol auth slot
//  3. token query parameter
//
// Returns "" when no credential is present.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if tok := strings.TrimSpace(parts[1]); tok != "" {
				return tok
			}
		}
	}

	if tok := subprotocolToken(r.Header.Get("Sec-WebSocket-Protocol")); tok != "" {
		return tok
	}

	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func subprotocolToken(header string) string {
	if header == "" {
		return ""
	}
	protos := strings.Split(header, ",")
	for i := range protos {
		protos[i] = strings.TrimSpace(protos[i])
	}
	if len(protos) >= 2 && protos[0] == BearerSubprotocol {
		return protos[1]
	}
	return ""
}
