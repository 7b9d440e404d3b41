package auth

import (
	"net/http/httptest"
	"testing"
)

func TestExtractToken_PriorityOrder(t *testing.T) {
	cases := []struct {
		name        string
		header      string
		subprotocol string
		query       string
		want        string
	}{
		{"header wins over all", "Bearer header-token", "bearer, proto-token", "query-token", "header-token"},
		{"subprotocol wins over query", "", "bearer, proto-token", "query-token", "proto-token"},
		{"query as last resort", "", "", "query-token", "query-token"},
		{"nothing present", "", "", "", ""},
		{"malformed header falls through", "Token abc", "", "query-token", "query-token"},
		{"subprotocol without token falls through", "", "bearer", "query-token", "query-token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url := "/chat/ws"
			if tc.query != "" {
				url += "?token=" + tc.query
			}
			r := httptest.NewRequest("GET", url, nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			if tc.subprotocol != "" {
				r.Header.Set("Sec-WebSocket-Protocol", tc.subprotocol)
			}
			if got := ExtractToken(r); got != tc.want {
				t.Errorf("ExtractToken() = %q, want %q", got, tc.want)
			}
		})
	}
}
