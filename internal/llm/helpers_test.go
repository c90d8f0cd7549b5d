package llm

import (
	"encoding/json"
	"net/http"
	"testing"
)

func decodeRequestBody(t *testing.T, r *http.Request, target any) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
}
